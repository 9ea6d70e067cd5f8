package availability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
	"github.com/m04kA/SMC-TableBookingService/internal/infra/storage/storagetest"
	tableRepo "github.com/m04kA/SMC-TableBookingService/internal/infra/storage/table"
	"github.com/m04kA/SMC-TableBookingService/pkg/logger"
)

func setup(t *testing.T, capacities ...int) (*Service, *tableRepo.Repository) {
	repo := tableRepo.NewRepository(storagetest.NewDB(t, nil), storagetest.Dialect)
	for i, c := range capacities {
		table, err := domain.NewTable(int64(i+1), c)
		require.NoError(t, err)
		require.NoError(t, repo.Insert(context.Background(), table))
	}
	return NewService(repo, logger.Nop()), repo
}

func TestService_TablesByCapacityIsExact(t *testing.T) {
	svc, _ := setup(t, 2, 4, 6, 4)

	tables, err := svc.TablesByCapacity(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	for _, table := range tables {
		assert.Equal(t, 4, table.Capacity)
	}
	assert.Equal(t, int64(2), tables[0].ID)
	assert.Equal(t, int64(4), tables[1].ID)

	none, err := svc.TablesByCapacity(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.TablesByCapacity(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidCapacity)
	_, err = svc.TablesByCapacity(context.Background(), -1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_SlotsFor(t *testing.T) {
	svc, _ := setup(t)

	table, err := domain.NewTable(1, 4)
	require.NoError(t, err)
	_, err = table.Timetable.Set(domain.SlotKey{Day: domain.Sunday, Hour: 20}, true)
	require.NoError(t, err)

	hours, err := svc.SlotsFor(table, domain.Sunday)
	require.NoError(t, err)
	assert.Len(t, hours, domain.HoursPerDay)
	assert.True(t, hours[20])
	assert.False(t, hours[17])

	_, err = svc.SlotsFor(table, "")
	assert.ErrorIs(t, err, domain.ErrMalformedSlotKey)
	_, err = svc.SlotsFor(table, "Caturday")
	assert.ErrorIs(t, err, domain.ErrMalformedSlotKey)
}

func TestService_FreeHoursAndOpenings(t *testing.T) {
	svc, repo := setup(t, 4, 4, 2)
	ctx := context.Background()

	table, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	_, err = table.Timetable.Set(domain.SlotKey{Day: domain.Monday, Hour: 18}, true)
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, table))

	free, err := svc.FreeHours(ctx, 1, domain.Monday)
	require.NoError(t, err)
	assert.Equal(t, []int{17, 19, 20, 21, 22}, free)

	_, err = svc.FreeHours(ctx, 42, domain.Monday)
	assert.ErrorIs(t, err, domain.ErrTableNotFound)

	openings, err := svc.Openings(ctx, 4, domain.Monday)
	require.NoError(t, err)
	assert.Len(t, openings, 2*domain.HoursPerDay-1)
	for _, o := range openings {
		assert.Equal(t, 4, o.Capacity)
		assert.False(t, o.TableID == 1 && o.Slot.Hour == 18)
	}

	_, err = svc.Openings(ctx, 4, "Someday")
	assert.ErrorIs(t, err, domain.ErrMalformedSlotKey)
}

func TestService_CandidatesFitTheParty(t *testing.T) {
	svc, repo := setup(t, 6, 2, 4)
	ctx := context.Background()

	table, err := repo.GetByID(ctx, 3)
	require.NoError(t, err)
	_, err = table.Timetable.Set(domain.SlotKey{Day: domain.Friday, Hour: 19}, true)
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, table))

	candidates, err := svc.Candidates(ctx, 3, domain.Friday)
	require.NoError(t, err)
	require.Len(t, candidates, 2*domain.HoursPerDay)

	// Сначала меньший подходящий стол
	assert.Equal(t, int64(3), candidates[0].TableID)
	assert.Equal(t, int64(1), candidates[domain.HoursPerDay].TableID)

	for _, c := range candidates {
		assert.NotEqual(t, int64(2), c.TableID)
		assert.Equal(t, c.TableID == 3 && c.Slot.Hour == 19, c.Occupied)
	}

	_, err = svc.Candidates(ctx, 0, domain.Friday)
	assert.ErrorIs(t, err, domain.ErrInvalidPartySize)
	_, err = svc.Candidates(ctx, 2, domain.Weekday("Someday"))
	assert.ErrorIs(t, err, domain.ErrMalformedSlotKey)
}
