package table

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
	"github.com/m04kA/SMC-TableBookingService/internal/infra/database"
	"github.com/m04kA/SMC-TableBookingService/internal/infra/storage/schema"
	"github.com/m04kA/SMC-TableBookingService/internal/infra/storage/sequence"
	"github.com/m04kA/SMC-TableBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-TableBookingService/pkg/sqlbuilder"
)

var columns = []string{"id", "capacity", "occupancy"}

// Repository репозиторий столов
type Repository struct {
	db      DBExecutor
	dialect sqlbuilder.Dialect
	ids     *sequence.Repository
}

// NewRepository создает новый экземпляр репозитория столов
func NewRepository(db DBExecutor, dialect sqlbuilder.Dialect) *Repository {
	return &Repository{db: db, dialect: dialect, ids: sequence.NewRepository(db, dialect)}
}

// lockSuffix добавляет FOR UPDATE внутри транзакции, если диалект его поддерживает
func (r *Repository) lockSuffix(ctx context.Context, b squirrel.SelectBuilder) squirrel.SelectBuilder {
	if dbmetrics.IsInTransaction(ctx) && r.dialect.SupportsRowLocks() {
		return b.Suffix("FOR UPDATE")
	}
	return b
}

// Insert сохраняет новый стол
func (r *Repository) Insert(ctx context.Context, table *domain.Table) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	row, err := table.Row()
	if err != nil {
		return fmt.Errorf("%w: Insert - table id=%d: %v", ErrEncode, table.ID, err)
	}

	query, args, err := r.dialect.Insert(schema.TablesTable).
		Columns(columns...).
		Values(row.ID, row.Capacity, row.Occupancy).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Insert - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: id=%d", ErrDuplicate, row.ID)
		}
		return fmt.Errorf("%w: Insert - execute insert: %v", ErrExecQuery, err)
	}

	if err := r.ids.Advance(ctx, schema.TablesTable, row.ID); err != nil {
		return fmt.Errorf("%w: Insert - advance id mark: %v", ErrExecQuery, err)
	}

	return nil
}

// Update перезаписывает вместимость и календарь существующего стола
func (r *Repository) Update(ctx context.Context, table *domain.Table) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	row, err := table.Row()
	if err != nil {
		return fmt.Errorf("%w: Update - table id=%d: %v", ErrEncode, table.ID, err)
	}

	query, args, err := r.dialect.Update(schema.TablesTable).
		Set("capacity", row.Capacity).
		Set("occupancy", row.Occupancy).
		Where(squirrel.Eq{"id": row.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Update - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrTableNotFound
	}

	return nil
}

// Save обновляет стол, если он существует, иначе создает
func (r *Repository) Save(ctx context.Context, table *domain.Table) error {
	exists, err := r.exists(ctx, table.ID)
	if err != nil {
		return err
	}
	if exists {
		return r.Update(ctx, table)
	}
	return r.Insert(ctx, table)
}

func (r *Repository) exists(ctx context.Context, id int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.dialect.Select("COUNT(*)").
		From(schema.TablesTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: exists - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: exists - scan count: %v", ErrScanRow, err)
	}
	return count > 0, nil
}

// Delete удаляет стол
func (r *Repository) Delete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.dialect.Delete(schema.TablesTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrTableNotFound
	}

	return nil
}

// GetByID получает стол по ID
// Внутри транзакции строка блокируется (FOR UPDATE) до её завершения
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Table, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := r.dialect.Select(columns...).
		From(schema.TablesTable).
		Where(squirrel.Eq{"id": id})

	query, args, err := r.lockSuffix(ctx, selectBuilder).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var row domain.TableRow
	err = executor.QueryRowContext(ctx, query, args...).Scan(&row.ID, &row.Capacity, &row.Occupancy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan table: %v", ErrScanRow, err)
	}

	return domain.LoadTable(row)
}

// List возвращает все столы в порядке ID
func (r *Repository) List(ctx context.Context) ([]*domain.Table, error) {
	selectBuilder := r.dialect.Select(columns...).
		From(schema.TablesTable).
		OrderBy("id ASC")

	return r.list(ctx, "List", r.lockSuffix(ctx, selectBuilder))
}

// ListByCapacity возвращает столы с точно такой вместимостью в порядке ID
func (r *Repository) ListByCapacity(ctx context.Context, capacity int) ([]*domain.Table, error) {
	selectBuilder := r.dialect.Select(columns...).
		From(schema.TablesTable).
		Where(squirrel.Eq{"capacity": capacity}).
		OrderBy("id ASC")

	return r.list(ctx, "ListByCapacity", selectBuilder)
}

// MaxID возвращает наибольший когда-либо выданный ID стола или 0, если столов нет
func (r *Repository) MaxID(ctx context.Context) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.dialect.Select("COALESCE(MAX(id), 0)").
		From(schema.TablesTable).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: MaxID - build select query: %v", ErrBuildQuery, err)
	}

	var maxID int64
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("%w: MaxID - scan max id: %v", ErrScanRow, err)
	}

	// Отметка переживает удаление строки с наибольшим ID
	mark, err := r.ids.Last(ctx, schema.TablesTable)
	if err != nil {
		return 0, fmt.Errorf("%w: MaxID - read id mark: %v", ErrScanRow, err)
	}
	return max(maxID, mark), nil
}

func (r *Repository) list(ctx context.Context, op string, selectBuilder squirrel.SelectBuilder) ([]*domain.Table, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, op, err)
	}
	defer rows.Close()

	tables := make([]*domain.Table, 0)
	for rows.Next() {
		var row domain.TableRow
		if err := rows.Scan(&row.ID, &row.Capacity, &row.Occupancy); err != nil {
			return nil, fmt.Errorf("%w: %s - scan table: %v", ErrScanRow, op, err)
		}

		table, err := domain.LoadTable(row)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, op, err)
	}

	return tables, nil
}
