package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/saferoute/internal/ingest"
	"github.com/sells-group/saferoute/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <source>...",
	Short: "Import crime datasets into the observation store",
	Long: `Import one or more crime datasets into the observation store.

Sources may be local paths or http(s)/ftp URLs. CSV, XLSX, point
shapefiles, and ZIP archives containing any of those are supported.

Examples:
  # Local CSV
  saferoute import ./crime.csv

  # Published dataset over HTTP
  saferoute import https://data.example.gov/crime_2024.zip

  # Shapefile from an FTP mirror
  saferoute import ftp://mirror.example.gov/gis/incidents.shp`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		importer := ingest.NewImporter(st, cfg.Import)
		for _, src := range args {
			rec, err := importer.Import(ctx, src)
			if err != nil {
				return eris.Wrapf(err, "import %s", src)
			}
			zap.L().Info("import complete",
				zap.String("source", rec.Source),
				zap.String("format", rec.Format),
				zap.Int("rows", rec.Rows),
				zap.Int("skipped", rec.Skipped),
			)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
