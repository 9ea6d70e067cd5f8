// Package sqlbuilder настраивает squirrel под диалект выбранной СУБД
package sqlbuilder

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
)

// Dialect поддерживаемая СУБД
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

// ParseDialect разбирает имя драйвера из конфигурации
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("sqlbuilder: unsupported dialect %q", s)
	}
}

// DriverName имя драйвера database/sql
func (d Dialect) DriverName() string {
	switch d {
	case Postgres:
		return "postgres"
	case MySQL:
		return "mysql"
	default:
		return "sqlite3"
	}
}

// Placeholder формат плейсхолдеров диалекта
func (d Dialect) Placeholder() squirrel.PlaceholderFormat {
	if d == Postgres {
		return squirrel.Dollar
	}
	return squirrel.Question
}

// Builder возвращает squirrel builder с плейсхолдерами диалекта
func (d Dialect) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(d.Placeholder())
}

// SupportsRowLocks true, если диалект понимает SELECT ... FOR UPDATE.
// SQLite блокирует всю базу на запись и такого синтаксиса не имеет.
func (d Dialect) SupportsRowLocks() bool {
	return d != SQLite
}

// SerializableLevel уровень изоляции для сериализуемых транзакций
func (d Dialect) SerializableLevel() sql.IsolationLevel {
	if d == SQLite {
		return sql.LevelDefault
	}
	return sql.LevelSerializable
}

// Select начинает SELECT для диалекта
func (d Dialect) Select(columns ...string) squirrel.SelectBuilder {
	return d.Builder().Select(columns...)
}

// Insert начинает INSERT для диалекта
func (d Dialect) Insert(table string) squirrel.InsertBuilder {
	return d.Builder().Insert(table)
}

// Update начинает UPDATE для диалекта
func (d Dialect) Update(table string) squirrel.UpdateBuilder {
	return d.Builder().Update(table)
}

// Delete начинает DELETE для диалекта
func (d Dialect) Delete(table string) squirrel.DeleteBuilder {
	return d.Builder().Delete(table)
}
