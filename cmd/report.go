/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/floorreports/apiserver/config"
	"github.com/floorreports/apiserver/internal/artifacts"
	"github.com/floorreports/apiserver/internal/db"
	"github.com/floorreports/apiserver/internal/services"
	"github.com/floorreports/apiserver/internal/store"
	"github.com/spf13/cobra"
)

// reportCmd represents the report command.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate reports",
}

var reportWeeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Render the trailing-week KPI report and store the artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer dbConn.Close()

		artifactStore, err := artifacts.NewFromConfig(cmd.Context(), cfg.Storage)
		if err != nil {
			return fmt.Errorf("artifact storage: %w", err)
		}

		weeklyService, err := services.NewWeeklyReportService(store.NewReportRepository(dbConn), artifactStore, logger)
		if err != nil {
			return err
		}

		key, err := weeklyService.Generate(cmd.Context(), time.Now())
		if err != nil {
			return fmt.Errorf("generate weekly report: %w", err)
		}

		logger.Info("weekly report written", "key", key, "bucket", artifactStore.Bucket())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportWeeklyCmd)
}
