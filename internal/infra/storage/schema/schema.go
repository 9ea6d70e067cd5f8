// Package schema хранит DDL для поддерживаемых диалектов
package schema

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-TableBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-TableBookingService/pkg/sqlbuilder"
)

// Имена таблиц
const (
	TablesTable       = "dining_tables"
	ReservationsTable = "reservations"

	// SequencesTable хранит последний выданный ID по имени таблицы
	SequencesTable = "id_sequences"
)

//go:embed *.sql
var files embed.FS

// Statements возвращает DDL диалекта по одной инструкции
func Statements(dialect sqlbuilder.Dialect) ([]string, error) {
	data, err := files.ReadFile(string(dialect) + ".sql")
	if err != nil {
		return nil, fmt.Errorf("schema: no ddl for dialect %s: %w", dialect, err)
	}

	var stmts []string
	for _, part := range strings.Split(string(data), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, nil
}

// Migrate создает таблицы, если их еще нет
func Migrate(ctx context.Context, db dbmetrics.DBExecutor, dialect sqlbuilder.Dialect) error {
	stmts, err := Statements(dialect)
	if err != nil {
		return err
	}

	executor := dbmetrics.GetExecutor(ctx, db)
	for _, stmt := range stmts {
		if _, err := executor.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema: migrate %s: %w", dialect, err)
		}
	}
	return nil
}
