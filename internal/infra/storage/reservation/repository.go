package reservation

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

var columns = []string{"id", "name", "party_size", "date_slot", "table_id", "state"}

// Repository репозиторий броней
type Repository struct {
	db      DBExecutor
	dialect sqlbuilder.Dialect
	ids     *sequence.Repository
}

// NewRepository создает новый экземпляр репозитория броней
func NewRepository(db DBExecutor, dialect sqlbuilder.Dialect) *Repository {
	return &Repository{db: db, dialect: dialect, ids: sequence.NewRepository(db, dialect)}
}

func (r *Repository) lockSuffix(ctx context.Context, b squirrel.SelectBuilder) squirrel.SelectBuilder {
	if dbmetrics.IsInTransaction(ctx) && r.dialect.SupportsRowLocks() {
		return b.Suffix("FOR UPDATE")
	}
	return b
}

// Insert сохраняет бронь
// Уникальность (table_id, date_slot) защищает слот от двойной брони
func (r *Repository) Insert(ctx context.Context, reservation *domain.Reservation) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)
	row := reservation.Row()

	query, args, err := r.dialect.Insert(schema.ReservationsTable).
		Columns(columns...).
		Values(row.ID, row.Name, row.PartySize, row.DateSlot, row.TableID, row.State).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Insert - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: id=%d table_id=%d slot=%s", ErrDuplicate, row.ID, row.TableID, row.DateSlot)
		}
		return fmt.Errorf("%w: Insert - execute insert: %v", ErrExecQuery, err)
	}

	if err := r.ids.Advance(ctx, schema.ReservationsTable, row.ID); err != nil {
		return fmt.Errorf("%w: Insert - advance id mark: %v", ErrExecQuery, err)
	}

	return nil
}

// Update перезаписывает слот, стол и состояние брони
func (r *Repository) Update(ctx context.Context, reservation *domain.Reservation) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)
	row := reservation.Row()

	query, args, err := r.dialect.Update(schema.ReservationsTable).
		Set("name", row.Name).
		Set("party_size", row.PartySize).
		Set("date_slot", row.DateSlot).
		Set("table_id", row.TableID).
		Set("state", row.State).
		Where(squirrel.Eq{"id": row.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: table_id=%d slot=%s", ErrDuplicate, row.TableID, row.DateSlot)
		}
		return fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Update - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrReservationNotFound
	}

	return nil
}

// Delete удаляет бронь
func (r *Repository) Delete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.dialect.Delete(schema.ReservationsTable).
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
		return ErrReservationNotFound
	}

	return nil
}

// GetByID получает бронь по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	selectBuilder := r.dialect.Select(columns...).
		From(schema.ReservationsTable).
		Where(squirrel.Eq{"id": id})

	return r.get(ctx, "GetByID", r.lockSuffix(ctx, selectBuilder))
}

// GetBySlot получает бронь, занимающую слот стола
func (r *Repository) GetBySlot(ctx context.Context, tableID int64, slot domain.SlotKey) (*domain.Reservation, error) {
	selectBuilder := r.dialect.Select(columns...).
		From(schema.ReservationsTable).
		Where(squirrel.Eq{"table_id": tableID, "date_slot": slot.String()})

	return r.get(ctx, "GetBySlot", r.lockSuffix(ctx, selectBuilder))
}

// List возвращает все брони в порядке ID
func (r *Repository) List(ctx context.Context) ([]*domain.Reservation, error) {
	selectBuilder := r.dialect.Select(columns...).
		From(schema.ReservationsTable).
		OrderBy("id ASC")

	return r.list(ctx, "List", r.lockSuffix(ctx, selectBuilder))
}

// ListByTable возвращает брони стола в порядке ID
func (r *Repository) ListByTable(ctx context.Context, tableID int64) ([]*domain.Reservation, error) {
	selectBuilder := r.dialect.Select(columns...).
		From(schema.ReservationsTable).
		Where(squirrel.Eq{"table_id": tableID}).
		OrderBy("id ASC")

	return r.list(ctx, "ListByTable", selectBuilder)
}

// CountByTable возвращает количество броней стола
func (r *Repository) CountByTable(ctx context.Context, tableID int64) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.dialect.Select("COUNT(*)").
		From(schema.ReservationsTable).
		Where(squirrel.Eq{"table_id": tableID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountByTable - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountByTable - scan count: %v", ErrScanRow, err)
	}
	return count, nil
}

// MaxID возвращает наибольший когда-либо выданный ID брони или 0, если броней нет
func (r *Repository) MaxID(ctx context.Context) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.dialect.Select("COALESCE(MAX(id), 0)").
		From(schema.ReservationsTable).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: MaxID - build select query: %v", ErrBuildQuery, err)
	}

	var maxID int64
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("%w: MaxID - scan max id: %v", ErrScanRow, err)
	}

	// Отметка переживает удаление строки с наибольшим ID
	mark, err := r.ids.Last(ctx, schema.ReservationsTable)
	if err != nil {
		return 0, fmt.Errorf("%w: MaxID - read id mark: %v", ErrScanRow, err)
	}
	return max(maxID, mark), nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRow(s scanner) (domain.ReservationRow, error) {
	var row domain.ReservationRow
	err := s.Scan(&row.ID, &row.Name, &row.PartySize, &row.DateSlot, &row.TableID, &row.State)
	return row, err
}

func (r *Repository) get(ctx context.Context, op string, selectBuilder squirrel.SelectBuilder) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	row, err := scanRow(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan reservation: %v", ErrScanRow, op, err)
	}

	return domain.LoadReservation(row)
}

func (r *Repository) list(ctx context.Context, op string, selectBuilder squirrel.SelectBuilder) ([]*domain.Reservation, error) {
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

	reservations := make([]*domain.Reservation, 0)
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan reservation: %v", ErrScanRow, op, err)
		}

		reservation, err := domain.LoadReservation(row)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, op, err)
	}

	return reservations, nil
}
