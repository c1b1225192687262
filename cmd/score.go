package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/saferoute/internal/ingest"
	"github.com/sells-group/saferoute/internal/model"
	"github.com/sells-group/saferoute/internal/risk"
	"github.com/sells-group/saferoute/internal/scorer"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score routes from a file against the trained model",
	Long: `Score a batch of routes offline.

The input is either a GeoJSON file of LineString features or a JSON
document of the form {"routes": [[[lat, lon], ...], ...]}. Scores come
back in input order; routes that cannot be scored get "Infinity".

Examples:
  # Score a request payload
  saferoute score --routes batch.json

  # Score GeoJSON tracks into a file
  saferoute score --routes tracks.geojson --output scores.json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		routesPath, _ := cmd.Flags().GetString("routes")
		outputPath, _ := cmd.Flags().GetString("output")
		modelPath, _ := cmd.Flags().GetString("model")
		if modelPath == "" {
			modelPath = cfg.Model.Path
		}

		m, err := risk.Load(modelPath)
		if err != nil {
			return eris.Wrap(err, "score: load model, run train first")
		}

		data, err := os.ReadFile(routesPath)
		if err != nil {
			return eris.Wrapf(err, "score: read %s", routesPath)
		}

		rs := scorer.NewRouteScorer(m, cfg.Scoring.MaxConcurrent)

		var scores []model.Score
		if strings.EqualFold(filepath.Ext(routesPath), ".geojson") {
			routes, err := ingest.ReadRoutesGeoJSON(data)
			if err != nil {
				return eris.Wrapf(err, "score: parse %s", routesPath)
			}
			scores = rs.ScoreRoutes(ctx, routes)
		} else {
			raws, err := ingest.ReadRouteBatchJSON(data)
			if err != nil {
				return eris.Wrapf(err, "score: parse %s", routesPath)
			}
			scores = rs.ScoreBatch(ctx, raws)
		}

		zap.L().Info("scoring complete", zap.Int("routes", len(scores)))
		return writeScores(scores, outputPath)
	},
}

func writeScores(scores []model.Score, outputPath string) error {
	w := os.Stdout
	if outputPath != "" {
		var err error
		w, err = os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "score: create output file %s", outputPath)
		}
		defer w.Close() //nolint:errcheck
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string][]model.Score{"scores": scores}); err != nil {
		return eris.Wrap(err, "score: encode output")
	}
	return nil
}

func init() {
	f := scoreCmd.Flags()
	f.String("routes", "", "path to routes file, .json or .geojson (required)")
	f.String("output", "", "output file path (default: stdout)")
	f.String("model", "", "model artifact path (default from config)")
	_ = scoreCmd.MarkFlagRequired("routes")

	rootCmd.AddCommand(scoreCmd)
}
