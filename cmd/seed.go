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
	"github.com/floorreports/apiserver/types"
	"github.com/spf13/cobra"
)

// seedDefectCodes is the offline fallback dictionary. It is only written
// when the cache is empty so a later sync still owns the table.
var seedDefectCodes = []types.DefectCode{
	{Code: "BRG", Name: "Bridging", DefaultOperation: types.OperationSMTAOI, Category: "solder"},
	{Code: "INS", Name: "Insufficient solder", DefaultOperation: types.OperationSMTAOI, Category: "solder"},
	{Code: "MIS", Name: "Missing component", DefaultOperation: types.OperationEither, Category: "placement"},
	{Code: "POL", Name: "Wrong polarity", DefaultOperation: types.OperationEither, Category: "placement"},
	{Code: "TSD", Name: "Tombstone", DefaultOperation: types.OperationSMTAOI, Category: "placement"},
	{Code: "LIF", Name: "Lifted lead", DefaultOperation: types.OperationTHAOI, Category: "solder"},
}

// seedCmd represents the seed command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default admin and baseline defect codes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer dbConn.Close()

		userService := services.NewUserService(store.NewUserRepository(dbConn))
		admin, created, err := userService.EnsureDefaultAdmin(cmd.Context(), cfg.Seed.AdminUsername, cfg.Seed.AdminPassword)
		if err != nil {
			return fmt.Errorf("ensure default admin: %w", err)
		}
		if created {
			logger.Info("default admin created", "username", admin.Username)
		} else {
			logger.Info("default admin already exists", "username", admin.Username)
		}

		defectRepo := store.NewDefectCodeRepository(dbConn)
		count, err := defectRepo.Count(cmd.Context())
		if err != nil {
			return fmt.Errorf("count defect codes: %w", err)
		}
		if count > 0 {
			logger.Info("defect code cache already populated", "entries", count)
			return nil
		}

		if err := defectRepo.ReplaceAll(cmd.Context(), seedDefectCodes); err != nil {
			return fmt.Errorf("seed defect codes: %w", err)
		}
		logger.Info("baseline defect codes seeded", "entries", len(seedDefectCodes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
