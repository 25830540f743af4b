package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/open-rails/grantkit/config"
	"github.com/open-rails/grantkit/core"
	"github.com/open-rails/grantkit/sched"
	pgstore "github.com/open-rails/grantkit/storage/postgres"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep [promotions|verification|orphans]",
	Short: "Run one sweep and exit",
	Long: `Run a single expiry or orphan sweep outside the schedule.
Sweeps are idempotent; running one by hand is always safe.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := logrus.New()

		pool, err := pgxpool.New(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store := pgstore.New(pool, cfg.Schema)

		svc, err := core.New(core.Config{
			DB:            store,
			Grants:        store.Grants(),
			Verifications: store.Verifications(),
			Targets:       []core.TargetStore{store.Ads(), store.Users()},
			Prices:        store.Prices(),
			Notifier:      core.LogNotifier{Log: log},
			Logger:        log,
		})
		if err != nil {
			return err
		}

		runner := sched.New(svc, sched.Config{RunTimeout: cfg.SweepRunTimeout, Logger: log})
		report, err := runner.RunOnce(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("sweep %s: %w", args[0], err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}
