package cancel_reservation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-TableBookingService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-TableBookingService/internal/infra/storage/storagetest"
	tableRepo "github.com/m04kA/SMC-TableBookingService/internal/infra/storage/table"
	"github.com/m04kA/SMC-TableBookingService/internal/service/occupancy"
	"github.com/m04kA/SMC-TableBookingService/pkg/locker"
	"github.com/m04kA/SMC-TableBookingService/pkg/logger"
	"github.com/m04kA/SMC-TableBookingService/pkg/metrics"
	"github.com/m04kA/SMC-TableBookingService/pkg/txmanager"
)

type fixture struct {
	uc           *UseCase
	tables       *tableRepo.Repository
	reservations *reservationRepo.Repository
	occupancy    *occupancy.Service
}

// failingDelete удаление брони всегда падает
type failingDelete struct {
	*reservationRepo.Repository
	err error
}

func (f failingDelete) Delete(context.Context, int64) error {
	return f.err
}

func newFixture(t *testing.T, deleteErr error) *fixture {
	t.Helper()

	db := storagetest.NewDB(t, nil)
	tables := tableRepo.NewRepository(db, storagetest.Dialect)
	reservations := reservationRepo.NewRepository(db, storagetest.Dialect)
	m := metrics.New("test")
	occ := occupancy.NewService(tables, m, logger.Nop())
	txm := txmanager.NewTransactionManager(db, txmanager.WithSerializableLevel(storagetest.Dialect.SerializableLevel()))

	var repo ReservationRepository = reservations
	if deleteErr != nil {
		repo = failingDelete{Repository: reservations, err: deleteErr}
	}

	return &fixture{
		uc:           NewUseCase(repo, occ, txm, locker.NewLocal(), m, logger.Nop()),
		tables:       tables,
		reservations: reservations,
		occupancy:    occ,
	}
}

func (f *fixture) addTable(t *testing.T, id int64, capacity int) {
	t.Helper()
	table, err := domain.NewTable(id, capacity)
	require.NoError(t, err)
	require.NoError(t, f.tables.Insert(context.Background(), table))
}

func (f *fixture) book(t *testing.T, id, tableID int64, slot string) {
	t.Helper()
	ctx := context.Background()
	table, err := domain.NewTable(tableID, 4)
	require.NoError(t, err)
	key, err := domain.ParseSlotKey(slot)
	require.NoError(t, err)
	r, err := domain.NewReservation(id, table, 2, "Guest", key)
	require.NoError(t, err)
	require.NoError(t, r.TransitionTo(domain.StateActive))
	require.NoError(t, f.reservations.Insert(ctx, r))
	if _, err := f.tables.GetByID(ctx, tableID); err == nil {
		_, err = f.occupancy.Occupy(ctx, r)
		require.NoError(t, err)
	}
}

func (f *fixture) occupied(t *testing.T, tableID int64, slot string) bool {
	t.Helper()
	table, err := f.tables.GetByID(context.Background(), tableID)
	require.NoError(t, err)
	key, err := domain.ParseSlotKey(slot)
	require.NoError(t, err)
	occupied, err := table.Timetable.Occupied(key)
	require.NoError(t, err)
	return occupied
}

func TestUseCase_ReleasesSlotAndDeletesRow(t *testing.T) {
	f := newFixture(t, nil)
	f.addTable(t, 1, 4)
	f.book(t, 1, 1, "Tuesday_19")

	resp, err := f.uc.Execute(context.Background(), &Request{ReservationID: 1})
	require.NoError(t, err)
	assert.True(t, resp.Changed)
	assert.Equal(t, "Tuesday_19", resp.Slot)

	assert.False(t, f.occupied(t, 1, "Tuesday_19"))
	_, err = f.reservations.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, reservationRepo.ErrReservationNotFound)

	// Повторная отмена: брони уже нет
	_, err = f.uc.Execute(context.Background(), &Request{ReservationID: 1})
	assert.ErrorIs(t, err, domain.ErrReservationNotFound)
}

func TestUseCase_Validation(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.uc.Execute(context.Background(), &Request{ReservationID: 0})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.uc.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestUseCase_DanglingReservationFailsFast(t *testing.T) {
	f := newFixture(t, nil)
	f.book(t, 1, 5, "Monday_17")

	_, err := f.uc.Execute(context.Background(), &Request{ReservationID: 1})
	assert.ErrorIs(t, err, domain.ErrTableNotFound)

	// Строка осталась для сверки
	_, err = f.reservations.GetByID(context.Background(), 1)
	require.NoError(t, err)
}

func TestUseCase_DeleteFailureIsPartialCommit(t *testing.T) {
	cause := errors.New("row locked")
	f := newFixture(t, cause)
	f.addTable(t, 1, 4)
	f.book(t, 1, 1, "Thursday_21")

	_, err := f.uc.Execute(context.Background(), &Request{ReservationID: 1})
	require.ErrorIs(t, err, domain.ErrPartialCommit)
	assert.ErrorIs(t, err, cause)

	var pc *domain.PartialCommitError
	require.ErrorAs(t, err, &pc)
	assert.Equal(t, "cancel", pc.Operation)
	assert.Equal(t, "delete reservation", pc.Step)
	assert.True(t, pc.RolledBack)

	// Освобождение слота откатилось вместе с транзакцией
	assert.True(t, f.occupied(t, 1, "Thursday_21"))
}
