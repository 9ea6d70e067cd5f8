package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TableBookingService/internal/config"
	"github.com/m04kA/SMC-TableBookingService/internal/infra/database"
	"github.com/m04kA/SMC-TableBookingService/pkg/sqlbuilder"
)

func TestStatements(t *testing.T) {
	for _, d := range []sqlbuilder.Dialect{sqlbuilder.Postgres, sqlbuilder.MySQL, sqlbuilder.SQLite} {
		stmts, err := Statements(d)
		require.NoError(t, err, d)
		assert.GreaterOrEqual(t, len(stmts), 2, d)
		assert.Contains(t, stmts[0], TablesTable)
	}

	_, err := Statements("oracle")
	assert.Error(t, err)
}

func TestMigrate_SQLiteIsRepeatable(t *testing.T) {
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db, sqlbuilder.SQLite))
	require.NoError(t, Migrate(ctx, db, sqlbuilder.SQLite))

	_, err = db.ExecContext(ctx, `INSERT INTO reservations (id, name, party_size, date_slot, table_id) VALUES (1, 'a', 2, 'Monday_17', 1)`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO reservations (id, name, party_size, date_slot, table_id) VALUES (2, 'b', 2, 'Monday_17', 1)`)
	assert.True(t, database.IsUniqueViolation(err))

	var state string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT state FROM reservations WHERE id = 1`).Scan(&state))
	assert.Equal(t, "active", state)
}

func TestMigrate_SeedsIDSequences(t *testing.T) {
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db, sqlbuilder.SQLite))

	_, err = db.ExecContext(ctx, `UPDATE id_sequences SET last_id = 7 WHERE name = 'reservations'`)
	require.NoError(t, err)

	// Повторная миграция не сбрасывает отметку
	require.NoError(t, Migrate(ctx, db, sqlbuilder.SQLite))

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM id_sequences`).Scan(&count))
	assert.Equal(t, 2, count)

	var last int64
	require.NoError(t, db.QueryRowContext(ctx, `SELECT last_id FROM id_sequences WHERE name = ?`, ReservationsTable).Scan(&last))
	assert.Equal(t, int64(7), last)
}
