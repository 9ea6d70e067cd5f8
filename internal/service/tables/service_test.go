package tables

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-TableBookingService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-TableBookingService/internal/infra/storage/storagetest"
	tableRepo "github.com/m04kA/SMC-TableBookingService/internal/infra/storage/table"
	"github.com/m04kA/SMC-TableBookingService/pkg/locker"
	"github.com/m04kA/SMC-TableBookingService/pkg/logger"
	"github.com/m04kA/SMC-TableBookingService/pkg/txmanager"
)

func setup(t *testing.T) (*Service, *reservationRepo.Repository) {
	db := storagetest.NewDB(t, nil)
	tables := tableRepo.NewRepository(db, storagetest.Dialect)
	reservations := reservationRepo.NewRepository(db, storagetest.Dialect)
	txm := txmanager.NewTransactionManager(db, txmanager.WithSerializableLevel(storagetest.Dialect.SerializableLevel()))
	return NewService(tables, reservations, txm, locker.NewLocal(), logger.Nop()), reservations
}

func TestService_CreateAllocatesSequentialIDs(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.Empty(t, first.Timetable.OccupiedSlots())

	second, err := svc.Create(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)

	_, err = svc.Create(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidCapacity)
}

func TestService_ConcurrentCreateYieldsUniqueIDs(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	const n = 10
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			table, err := svc.Create(ctx, 2)
			if assert.NoError(t, err) {
				ids <- table.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestService_DeleteKeepsHighWaterMark(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, 2)
	require.NoError(t, err)
	second, err := svc.Create(ctx, 2)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1))

	third, err := svc.Create(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, second.ID+1, third.ID)

	assert.ErrorIs(t, svc.Delete(ctx, 1), domain.ErrTableNotFound)
}

func TestService_DeletingNewestTableDoesNotReuseID(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, 2)
	require.NoError(t, err)
	second, err := svc.Create(ctx, 4)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, second.ID))

	third, err := svc.Create(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, second.ID+1, third.ID)

	require.NoError(t, svc.Delete(ctx, third.ID))
	require.NoError(t, svc.Delete(ctx, first.ID))

	fourth, err := svc.Create(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, third.ID+1, fourth.ID)
}

func TestService_UpdateCapacity(t *testing.T) {
	svc, reservations := setup(t)
	ctx := context.Background()

	table, err := svc.Create(ctx, 6)
	require.NoError(t, err)

	r, err := domain.NewReservation(1, table, 5, "Ada", domain.SlotKey{Day: domain.Monday, Hour: 18})
	require.NoError(t, err)
	require.NoError(t, r.TransitionTo(domain.StateActive))
	require.NoError(t, reservations.Insert(ctx, r))

	_, err = svc.UpdateCapacity(ctx, table.ID, 4)
	assert.ErrorIs(t, err, ErrCapacityBelowParty)
	assert.ErrorIs(t, err, domain.ErrValidation)

	updated, err := svc.UpdateCapacity(ctx, table.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, 8, updated.Capacity)

	_, err = svc.UpdateCapacity(ctx, 99, 4)
	assert.ErrorIs(t, err, domain.ErrTableNotFound)

	_, err = svc.UpdateCapacity(ctx, table.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidCapacity)
}

func TestService_DeleteRejectsTableInUse(t *testing.T) {
	svc, reservations := setup(t)
	ctx := context.Background()

	table, err := svc.Create(ctx, 4)
	require.NoError(t, err)

	r, err := domain.NewReservation(1, table, 2, "Ada", domain.SlotKey{Day: domain.Friday, Hour: 20})
	require.NoError(t, err)
	require.NoError(t, r.TransitionTo(domain.StateActive))
	require.NoError(t, reservations.Insert(ctx, r))

	assert.ErrorIs(t, svc.Delete(ctx, table.ID), ErrTableInUse)

	got, err := svc.GetByID(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, table.ID, got.ID)
}

func TestService_GetAndList(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.GetByID(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrTableNotFound)

	for _, c := range []int{2, 4} {
		_, err := svc.Create(ctx, c)
		require.NoError(t, err)
	}

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// serializableOnly умеет только сериализуемые транзакции
type serializableOnly struct {
	tm *txmanager.TransactionManager
}

func (s serializableOnly) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.tm.DoSerializable(ctx, fn)
}

func TestService_NeedsOnlySerializableTransactions(t *testing.T) {
	db := storagetest.NewDB(t, nil)
	txm := serializableOnly{tm: txmanager.NewTransactionManager(db, txmanager.WithSerializableLevel(storagetest.Dialect.SerializableLevel()))}
	svc := NewService(tableRepo.NewRepository(db, storagetest.Dialect), reservationRepo.NewRepository(db, storagetest.Dialect), txm, locker.NewLocal(), logger.Nop())
	ctx := context.Background()

	table, err := svc.Create(ctx, 4)
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Capacity)
}
