package create_reservation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
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
	metrics      *metrics.Metrics
}

type failingOccupancy struct {
	err error
}

func (f failingOccupancy) Occupy(context.Context, *domain.Reservation) (bool, error) {
	return false, f.err
}

func newFixture(t *testing.T, occ OccupancyService) *fixture {
	t.Helper()

	db := storagetest.NewDB(t, nil)
	tables := tableRepo.NewRepository(db, storagetest.Dialect)
	reservations := reservationRepo.NewRepository(db, storagetest.Dialect)
	m := metrics.New("test")
	if occ == nil {
		occ = occupancy.NewService(tables, m, logger.Nop())
	}
	txm := txmanager.NewTransactionManager(db, txmanager.WithSerializableLevel(storagetest.Dialect.SerializableLevel()))

	return &fixture{
		uc:           NewUseCase(tables, reservations, occ, txm, locker.NewLocal(), m, logger.Nop(), domain.DefaultMaxPartySize),
		tables:       tables,
		reservations: reservations,
		metrics:      m,
	}
}

func (f *fixture) addTable(t *testing.T, id int64, capacity int) {
	t.Helper()
	table, err := domain.NewTable(id, capacity)
	require.NoError(t, err)
	require.NoError(t, f.tables.Insert(context.Background(), table))
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

func TestUseCase_CreatesAndOccupies(t *testing.T) {
	f := newFixture(t, nil)
	f.addTable(t, 1, 4)

	resp, err := f.uc.Execute(context.Background(), &Request{Name: "Ada", PartySize: 4, TableID: 1, Slot: "Monday_18"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, "Monday_18", resp.Slot)
	assert.Equal(t, string(domain.StateActive), resp.State)
	assert.True(t, f.occupied(t, 1, "Monday_18"))

	stored, err := f.reservations.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Ada", stored.Name)
	assert.Equal(t, 4, stored.PartySize)
}

func TestUseCase_AllocatesNextID(t *testing.T) {
	f := newFixture(t, nil)
	f.addTable(t, 1, 4)
	ctx := context.Background()

	for i, slot := range []string{"Monday_17", "Monday_18", "Monday_19"} {
		resp, err := f.uc.Execute(ctx, &Request{Name: "Guest", PartySize: 2, TableID: 1, Slot: slot})
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), resp.ID)
	}
}

func TestUseCase_RejectsBeforeAnyWrite(t *testing.T) {
	tests := []struct {
		name    string
		req     *Request
		wantErr error
	}{
		{name: "party exceeds capacity", req: &Request{Name: "Ada", PartySize: 5, TableID: 1, Slot: "Monday_18"}, wantErr: domain.ErrCapacityExceeded},
		{name: "zero party", req: &Request{Name: "Ada", PartySize: 0, TableID: 1, Slot: "Monday_18"}, wantErr: domain.ErrInvalidPartySize},
		{name: "party above maximum", req: &Request{Name: "Ada", PartySize: 9, TableID: 1, Slot: "Monday_18"}, wantErr: domain.ErrPartyTooLarge},
		{name: "empty name", req: &Request{Name: "  ", PartySize: 2, TableID: 1, Slot: "Monday_18"}, wantErr: domain.ErrEmptyName},
		{name: "bad table id", req: &Request{Name: "Ada", PartySize: 2, TableID: 0, Slot: "Monday_18"}, wantErr: domain.ErrInvalidID},
		{name: "malformed slot", req: &Request{Name: "Ada", PartySize: 2, TableID: 1, Slot: "Monday-18"}, wantErr: domain.ErrMalformedSlotKey},
		{name: "hour outside range", req: &Request{Name: "Ada", PartySize: 2, TableID: 1, Slot: "Monday_12"}, wantErr: domain.ErrMalformedSlotKey},
		{name: "unknown table", req: &Request{Name: "Ada", PartySize: 2, TableID: 7, Slot: "Monday_18"}, wantErr: domain.ErrTableNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.addTable(t, 1, 4)

			_, err := f.uc.Execute(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)

			all, err := f.reservations.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
			assert.False(t, f.occupied(t, 1, "Monday_18"))
		})
	}
}

func TestUseCase_CapacityIsAValidationError(t *testing.T) {
	f := newFixture(t, nil)
	f.addTable(t, 1, 4)

	_, err := f.uc.Execute(context.Background(), &Request{Name: "Ada", PartySize: 5, TableID: 1, Slot: "Monday_18"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUseCase_RejectsOccupiedSlot(t *testing.T) {
	f := newFixture(t, nil)
	f.addTable(t, 1, 4)
	ctx := context.Background()

	_, err := f.uc.Execute(ctx, &Request{Name: "Ada", PartySize: 2, TableID: 1, Slot: "Friday_20"})
	require.NoError(t, err)

	_, err = f.uc.Execute(ctx, &Request{Name: "Bob", PartySize: 2, TableID: 1, Slot: "Friday_20"})
	assert.ErrorIs(t, err, domain.ErrSlotOccupied)

	all, err := f.reservations.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUseCase_RejectsSlotHeldByUnmarkedReservation(t *testing.T) {
	f := newFixture(t, nil)
	f.addTable(t, 1, 4)
	ctx := context.Background()

	table, err := f.tables.GetByID(ctx, 1)
	require.NoError(t, err)
	r, err := domain.NewReservation(5, table, 2, "Ghost", domain.SlotKey{Day: domain.Friday, Hour: 20})
	require.NoError(t, err)
	require.NoError(t, r.TransitionTo(domain.StateActive))
	require.NoError(t, f.reservations.Insert(ctx, r))

	_, err = f.uc.Execute(ctx, &Request{Name: "Bob", PartySize: 2, TableID: 1, Slot: "Friday_20"})
	assert.ErrorIs(t, err, domain.ErrSlotOccupied)
}

func TestUseCase_ConcurrentCreatesNeverDoubleBook(t *testing.T) {
	f := newFixture(t, nil)
	f.addTable(t, 1, 4)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Execute(ctx, &Request{Name: "Guest", PartySize: 2, TableID: 1, Slot: "Saturday_21"})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrSlotOccupied)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	all, err := f.reservations.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUseCase_OccupyFailureIsPartialCommit(t *testing.T) {
	cause := errors.New("timetable write failed")
	f := newFixture(t, failingOccupancy{err: cause})
	f.addTable(t, 1, 4)
	ctx := context.Background()

	_, err := f.uc.Execute(ctx, &Request{Name: "Ada", PartySize: 2, TableID: 1, Slot: "Monday_18"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPartialCommit)
	assert.ErrorIs(t, err, cause)

	var pc *domain.PartialCommitError
	require.ErrorAs(t, err, &pc)
	assert.Equal(t, "create", pc.Operation)
	assert.Equal(t, int64(1), pc.ReservationID)
	assert.Equal(t, "occupy slot", pc.Step)
	assert.NotEmpty(t, pc.IncidentID)
	assert.True(t, pc.RolledBack)

	// Транзакция откатила вставку брони
	_, err = f.reservations.GetByID(ctx, 1)
	assert.ErrorIs(t, err, reservationRepo.ErrReservationNotFound)

	expected := `
# HELP table_booking_partial_commits_total Lifecycle operations that failed between their writes.
# TYPE table_booking_partial_commits_total counter
table_booking_partial_commits_total{operation="create",rolled_back="true",service="test"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected), "table_booking_partial_commits_total"))
}
