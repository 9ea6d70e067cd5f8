// Package sequence хранит отметку последнего выданного ID.
// Отметка только растет, поэтому удаление строки с наибольшим ID
// не возвращает этот ID в оборот.
package sequence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-TableBookingService/internal/infra/storage/schema"
	"github.com/m04kA/SMC-TableBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-TableBookingService/pkg/sqlbuilder"
)

// Repository репозиторий отметок ID
type Repository struct {
	db      dbmetrics.DBExecutor
	dialect sqlbuilder.Dialect
}

// NewRepository создает новый экземпляр репозитория отметок
func NewRepository(db dbmetrics.DBExecutor, dialect sqlbuilder.Dialect) *Repository {
	return &Repository{db: db, dialect: dialect}
}

// Last возвращает последний выданный ID последовательности или 0
func (r *Repository) Last(ctx context.Context, name string) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := r.dialect.Select("last_id").
		From(schema.SequencesTable).
		Where(squirrel.Eq{"name": name})
	if dbmetrics.IsInTransaction(ctx) && r.dialect.SupportsRowLocks() {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: Last - build select query: %v", ErrBuildQuery, err)
	}

	var last int64
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&last); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: Last - scan %s: %v", ErrScanRow, name, err)
	}
	return last, nil
}

// Advance поднимает отметку до id, меньшие значения игнорируются
func (r *Repository) Advance(ctx context.Context, name string, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.dialect.Update(schema.SequencesTable).
		Set("last_id", id).
		Where(squirrel.Eq{"name": name}).
		Where(squirrel.Lt{"last_id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Advance - build update query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Advance - %s to %d: %v", ErrExecQuery, name, id, err)
	}
	return nil
}
