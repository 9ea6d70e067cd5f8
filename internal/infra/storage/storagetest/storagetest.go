// Package storagetest поднимает мигрированную SQLite в памяти для тестов
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TableBookingService/internal/config"
	"github.com/m04kA/SMC-TableBookingService/internal/infra/database"
	"github.com/m04kA/SMC-TableBookingService/internal/infra/storage/schema"
	"github.com/m04kA/SMC-TableBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-TableBookingService/pkg/sqlbuilder"
)

// Dialect диалект тестовой базы
const Dialect = sqlbuilder.SQLite

// NewDB открывает пустую базу со схемой и закрывает её по окончании теста
func NewDB(t testing.TB, recorder dbmetrics.Recorder) *dbmetrics.DB {
	t.Helper()

	sqlDB, err := database.Open(config.DatabaseConfig{Driver: string(Dialect), Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, schema.Migrate(context.Background(), sqlDB, Dialect))

	return dbmetrics.Wrap(sqlDB, recorder)
}
