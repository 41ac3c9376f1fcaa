package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopql/shopql/internal/config"
	"github.com/shopql/shopql/internal/service"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create and fill the demo tables in the configured SQL store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configFrom(cmd)
		switch cfg.StoreDriver {
		case config.DriverSQLite, config.DriverDuckDB, config.DriverPostgres:
		default:
			return fmt.Errorf("seed is not supported for store driver %q", cfg.StoreDriver)
		}

		db, err := service.OpenDB(cmd.Context(), service.DBConfig{
			Driver:          cfg.StoreDriver,
			DSN:             cfg.StoreDSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			return err
		}
		defer db.Close()

		if err := service.Seed(cmd.Context(), db, service.PlaceholderFor(cfg.StoreDriver)); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		log.Info().Str("driver", cfg.StoreDriver).Msg("demo data seeded")
		return nil
	},
}
