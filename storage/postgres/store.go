// Package pgstore implements the core store interfaces over Postgres with
// pgx. Table names are schema-qualified; the schema is configurable and
// defaults to "marketplace".
package pgstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/open-rails/grantkit/core"
)

// Store is the shared handle behind the per-interface views.
type Store struct {
	pg     *pgxpool.Pool
	schema string
}

func New(pg *pgxpool.Pool, schema string) *Store {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "marketplace"
	}
	return &Store{pg: pg, schema: s}
}

func (s *Store) table(name string) string { return s.schema + "." + name }

// Pool exposes the underlying pool for embedders (river, migrations).
func (s *Store) Pool() *pgxpool.Pool { return s.pg }

// Grants returns the core.GrantStore view.
func (s *Store) Grants() core.GrantStore { return &grantStore{s} }

// Verifications returns the core.VerificationStore view.
func (s *Store) Verifications() core.VerificationStore { return &verificationStore{s} }

// Ads returns the ad-kind core.TargetStore view.
func (s *Store) Ads() core.TargetStore { return &adStore{s} }

// Users returns the user-kind core.TargetStore view.
func (s *Store) Users() core.TargetStore { return &userStore{s} }

// Prices returns the core.PriceBook view.
func (s *Store) Prices() core.PriceBook { return &priceBook{s} }

type txKey struct{}

// Atomic runs fn inside a transaction carried on the context; queries issued
// through the store during fn join it. A nested Atomic joins the outer
// transaction rather than opening a second one.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	if s.pg == nil {
		return fmt.Errorf("pgstore: no pool configured")
	}
	tx, err := s.pg.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Store) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pg
}
