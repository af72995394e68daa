package pgstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"ledgerengine/internal/config"
	"ledgerengine/internal/storage/conformance"
	"ledgerengine/internal/storage/pgstore"
)

// TestPgstoreConformance runs the shared storage.Store conformance suite
// against a real, disposable PostgreSQL instance, the same way the source
// project's integration suite spins up its database: a testcontainers
// instance per run, torn down on exit. Skipped under -short since starting
// a container is too slow for a tight inner loop.
func TestPgstoreConformance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers-backed pgstore conformance suite in -short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ledger"),
		tcpostgres.WithUsername("ledger"),
		tcpostgres.WithPassword("ledger_test_pass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres testcontainer")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres testcontainer: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := pgstore.Open(ctx, config.PostgresConfig{
		DSN:            dsn,
		MaxConns:       4,
		ConnectTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	defer store.Close()

	conformance.Run(t, store)
}
