package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/saferoute/internal/ingest"
	"github.com/sells-group/saferoute/internal/model"
	"github.com/sells-group/saferoute/internal/risk"
	"github.com/sells-group/saferoute/internal/store"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit the risk model from stored observations",
	Long: `Fit a nearest-neighbor risk model and persist it as a compressed
artifact.

Training data comes from the observation store by default; --src fits
directly from a local CSV, XLSX, or shapefile instead.

Examples:
  # Fit from the store with defaults
  saferoute train

  # Fit from a raw CSV, custom neighborhood size
  saferoute train --src ./crime.csv --neighbors 12`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		src, _ := cmd.Flags().GetString("src")
		output, _ := cmd.Flags().GetString("output")
		neighbors, _ := cmd.Flags().GetInt("neighbors")

		if output == "" {
			output = cfg.Model.Path
		}
		if neighbors == 0 {
			neighbors = cfg.Train.Neighbors
		}

		obs, err := trainingObservations(ctx, src)
		if err != nil {
			return err
		}
		if len(obs) == 0 {
			return eris.New("train: no observations available, run import first")
		}

		m, err := risk.Fit(obs, neighbors)
		if err != nil {
			return eris.Wrap(err, "train: fit")
		}
		if err := m.Save(output); err != nil {
			return eris.Wrap(err, "train: save")
		}

		meta := m.Meta()
		zap.L().Info("training complete",
			zap.Int("rows", meta.Rows),
			zap.Int("k", meta.K),
			zap.String("artifact", output),
		)
		fmt.Printf("Trained on %d observations (k=%d), artifact written to %s\n",
			meta.Rows, meta.K, output)
		return nil
	},
}

func trainingObservations(ctx context.Context, src string) ([]model.Observation, error) {
	if src != "" {
		obs, skipped, err := ingest.ParseFile(src, cfg.Import)
		if err != nil {
			return nil, eris.Wrapf(err, "train: parse %s", src)
		}
		if skipped > 0 {
			zap.L().Warn("train: skipped unusable rows",
				zap.String("src", src),
				zap.Int("skipped", skipped),
			)
		}
		return obs, nil
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck
	return st.ListObservations(ctx)
}

func init() {
	f := trainCmd.Flags()
	f.String("src", "", "fit directly from a local dataset instead of the store")
	f.String("output", "", "artifact output path (default from config)")
	f.Int("neighbors", 0, "neighborhood size k (default from config)")

	rootCmd.AddCommand(trainCmd)
}
