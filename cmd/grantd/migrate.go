package main

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/open-rails/grantkit/config"
	migrations "github.com/open-rails/grantkit/migrations/postgres"
)

// migrateCmd applies the embedded schema SQL in order. Host apps with their
// own migration tooling run migrations.Migrations through bun instead; this
// command exists so grantd works standalone.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the grantkit schema to the database",
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

		var files []string
		if err := fs.WalkDir(migrations.FS, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".up.sql") {
				files = append(files, path)
			}
			return nil
		}); err != nil {
			return err
		}
		sort.Strings(files)

		for _, name := range files {
			sql, err := fs.ReadFile(migrations.FS, name)
			if err != nil {
				return err
			}
			if _, err := pool.Exec(cmd.Context(), string(sql)); err != nil {
				return fmt.Errorf("apply %s: %w", name, err)
			}
			log.WithField("migration", name).Info("applied")
		}
		return nil
	},
}
