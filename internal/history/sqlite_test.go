package history_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flightrisk/flightrisk/internal/database"
	"github.com/flightrisk/flightrisk/internal/history"
)

func newSQLiteRepository(t *testing.T, records []history.FlightRecord) *history.SQLiteRepository {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := history.NewSQLiteRepository(db)
	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.Insert(ctx, records...))
	return repo
}
