package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/saferoute/internal/risk"
	"github.com/sells-group/saferoute/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show observation store and model status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		count, err := st.CountObservations(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Store:        %s (%s)\n", cfg.Store.Driver, cfg.Store.DatabaseURL)
		fmt.Printf("Observations: %d\n", count)

		if m, err := risk.Load(cfg.Model.Path); err == nil {
			meta := m.Meta()
			fmt.Printf("Model:        %s (k=%d, rows=%d, trained %s)\n",
				cfg.Model.Path, meta.K, meta.Rows, meta.TrainedAt.Format("2006-01-02 15:04:05"))
		} else {
			fmt.Printf("Model:        not trained (%s missing or invalid)\n", cfg.Model.Path)
		}

		imports, err := st.ListImports(ctx, 10)
		if err != nil {
			return err
		}
		if len(imports) == 0 {
			fmt.Println("\nNo imports recorded.")
			return nil
		}

		fmt.Printf("\n%-20s %-6s %8s %8s  %s\n", "Imported", "Format", "Rows", "Skipped", "Source")
		for _, rec := range imports {
			fmt.Printf("%-20s %-6s %8d %8d  %s\n",
				rec.ImportedAt.Format("2006-01-02 15:04:05"),
				rec.Format, rec.Rows, rec.Skipped, rec.Source)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
