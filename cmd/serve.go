package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/saferoute/internal/api"
	"github.com/sells-group/saferoute/internal/risk"
	"github.com/sells-group/saferoute/internal/scorer"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the route scoring HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// A missing artifact is fatal here: the server has nothing to
		// score against without it.
		m, err := risk.Load(cfg.Model.Path)
		if err != nil {
			return eris.Wrap(err, "serve: load model, run train first")
		}

		meta := m.Meta()
		zap.L().Info("model loaded",
			zap.String("path", cfg.Model.Path),
			zap.Int("rows", meta.Rows),
			zap.Int("k", meta.K),
		)

		serverCfg := cfg.Server
		if servePort != 0 {
			serverCfg.Port = servePort
		}

		rs := scorer.NewRouteScorer(m, cfg.Scoring.MaxConcurrent)
		return api.NewServer(rs, m, serverCfg).ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
