/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/floorreports/apiserver/config"
	"github.com/floorreports/apiserver/internal/db"
	"github.com/floorreports/apiserver/internal/services"
	"github.com/floorreports/apiserver/internal/store"
	"github.com/floorreports/apiserver/internal/supabase"
	"github.com/spf13/cobra"
)

// syncCmd represents the sync command.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the defect code cache from the remote backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

		if !cfg.Remote.Configured() {
			return fmt.Errorf("remote defect source is not configured; set SUPABASE_URL and SUPABASE_KEY")
		}

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer dbConn.Close()

		fetcher := supabase.NewClient(cfg.Remote, logger)
		syncService := services.NewSyncService(fetcher, store.NewDefectCodeRepository(dbConn), nil, logger)

		entries, err := syncService.Sync(cmd.Context())
		if err != nil {
			return fmt.Errorf("sync failed; local cache unchanged: %w", err)
		}

		logger.Info("sync complete", "entries", entries)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
