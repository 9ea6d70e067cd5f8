package sqlbuilder

import (
	"database/sql"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		input   string
		want    Dialect
		wantErr bool
	}{
		{input: "postgres", want: Postgres},
		{input: "PostgreSQL", want: Postgres},
		{input: "mysql", want: MySQL},
		{input: "sqlite3", want: SQLite},
		{input: " sqlite ", want: SQLite},
		{input: "oracle", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDialect(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDialect_Placeholders(t *testing.T) {
	query, args, err := Postgres.Select("id").From("dining_tables").Where(squirrel.Eq{"id": 1}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM dining_tables WHERE id = $1", query)
	assert.Equal(t, []interface{}{1}, args)

	query, _, err = SQLite.Select("id").From("dining_tables").Where(squirrel.Eq{"id": 1}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM dining_tables WHERE id = ?", query)
}

func TestDialect_Capabilities(t *testing.T) {
	assert.True(t, Postgres.SupportsRowLocks())
	assert.True(t, MySQL.SupportsRowLocks())
	assert.False(t, SQLite.SupportsRowLocks())

	assert.Equal(t, sql.LevelSerializable, MySQL.SerializableLevel())
	assert.Equal(t, sql.LevelDefault, SQLite.SerializableLevel())

	assert.Equal(t, "sqlite3", SQLite.DriverName())
	assert.Equal(t, "mysql", MySQL.DriverName())
}
