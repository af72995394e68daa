// Package pgstore is the durable storage backend: storage.Store backed by
// PostgreSQL via github.com/jackc/pgx/v5, selected when a DSN is
// configured. Every engine operation still touches at most one account row
// and at most one tx_records row, so SERIALIZABLE/REPEATABLE READ isolation
// alone is enough to give the same conflict-detecting semantics memstore
// gives with its version stamps — Postgres does the version bookkeeping for
// us and reports it back as a serialization failure at commit.
package pgstore

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ledgerengine/internal/config"
	"ledgerengine/internal/ledger"
	"ledgerengine/internal/storage"
)

//go:embed migrations/0001_init.sql
var migration string

// Store is a pgx connection-pool-backed implementation of storage.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to Postgres, applies the embedded schema migration, and
// returns a ready-to-use Store.
func Open(ctx context.Context, cfg config.PostgresConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgstore: parse dsn: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pgstore: new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, migration); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: apply migration: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Begin opens a pgx transaction at the isolation level the mode requires:
// Serializable for writes, so a conflicting concurrent commit surfaces as
// SQLSTATE 40001 at Commit time; RepeatableRead for reads, a cheap
// consistent snapshot that never blocks a writer.
func (s *Store) Begin(ctx context.Context, mode storage.Mode) (storage.Tx, error) {
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead}
	if mode == storage.Write {
		opts = pgx.TxOptions{IsoLevel: pgx.Serializable}
	} else {
		opts.AccessMode = pgx.ReadOnly
	}

	pgxTx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("pgstore: begin: %w", err)
	}
	return &tx{pgxTx: pgxTx, mode: mode}, nil
}

// Accounts streams every row of the accounts table. The scan is a single
// SELECT on the pool, outside any explicit transaction; Postgres runs one
// statement against one consistent snapshot.
func (s *Store) Accounts(ctx context.Context) (<-chan ledger.Account, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT client_id, available::text, held::text, locked FROM accounts
	`)
	if err != nil {
		return nil, fmt.Errorf("pgstore: query accounts: %w", err)
	}

	out := make(chan ledger.Account)
	go func() {
		defer rows.Close()
		defer close(out)
		for rows.Next() {
			acc, err := scanAccount(rows)
			if err != nil {
				return
			}
			select {
			case out <- acc:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
