package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
	tableRepo "github.com/m04kA/SMC-TableBookingService/internal/infra/storage/table"
	"github.com/m04kA/SMC-TableBookingService/internal/service/availability/models"
)

// Service поиск столов и свободных слотов
type Service struct {
	tableRepo TableRepository
	logger    Logger
}

// NewService создает новый экземпляр сервиса доступности
func NewService(tableRepo TableRepository, logger Logger) *Service {
	return &Service{
		tableRepo: tableRepo,
		logger:    logger,
	}
}

// TablesByCapacity возвращает столы ровно указанной вместимости
func (s *Service) TablesByCapacity(ctx context.Context, capacity int) ([]*domain.Table, error) {
	if capacity <= 0 {
		s.logger.Warn("TablesByCapacity: invalid capacity=%d", capacity)
		return nil, domain.ErrInvalidCapacity
	}

	tables, err := s.tableRepo.ListByCapacity(ctx, capacity)
	if err != nil {
		s.logger.Error("TablesByCapacity: repository error for capacity=%d: %v", capacity, err)
		if errors.Is(err, domain.ErrMalformedRow) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: TablesByCapacity - repository error: %w", ErrInternal, err)
	}

	return tables, nil
}

// SlotsFor возвращает час -> занят для дня недели стола
func (s *Service) SlotsFor(table *domain.Table, day domain.Weekday) (map[int]bool, error) {
	if table == nil {
		return nil, domain.ErrTableNotFound
	}
	return table.Timetable.Day(day)
}

// DaySchedule возвращает занятость часов дня в порядке возрастания
func (s *Service) DaySchedule(ctx context.Context, tableID int64, day domain.Weekday) ([]models.HourState, error) {
	table, err := s.getTable(ctx, tableID)
	if err != nil {
		return nil, err
	}

	hours, err := s.SlotsFor(table, day)
	if err != nil {
		return nil, err
	}

	schedule := make([]models.HourState, 0, len(hours))
	for _, h := range domain.Hours() {
		schedule = append(schedule, models.HourState{Hour: h, Occupied: hours[h]})
	}
	return schedule, nil
}

// FreeHours возвращает свободные часы стола в указанный день
func (s *Service) FreeHours(ctx context.Context, tableID int64, day domain.Weekday) ([]int, error) {
	schedule, err := s.DaySchedule(ctx, tableID, day)
	if err != nil {
		return nil, err
	}

	free := make([]int, 0, len(schedule))
	for _, h := range schedule {
		if !h.Occupied {
			free = append(free, h.Hour)
		}
	}
	return free, nil
}

// Openings возвращает свободные слоты всех столов нужной вместимости в указанный день
func (s *Service) Openings(ctx context.Context, capacity int, day domain.Weekday) ([]models.Opening, error) {
	if !day.IsValid() {
		return nil, fmt.Errorf("%w: unknown weekday %q", domain.ErrMalformedSlotKey, day)
	}

	tables, err := s.TablesByCapacity(ctx, capacity)
	if err != nil {
		return nil, err
	}

	openings := make([]models.Opening, 0)
	for _, table := range tables {
		hours, err := s.SlotsFor(table, day)
		if err != nil {
			return nil, err
		}
		for _, h := range domain.Hours() {
			if hours[h] {
				continue
			}
			openings = append(openings, models.Opening{
				TableID:  table.ID,
				Capacity: table.Capacity,
				Slot:     domain.SlotKey{Day: day, Hour: h},
			})
		}
	}

	s.logger.Info("Openings: %d free slot(s) for capacity=%d on %s", len(openings), capacity, day)
	return openings, nil
}

// Candidates возвращает все слоты дня у столов, за которые сядет компания
// Столы идут от меньшей вместимости к большей, занятые слоты тоже входят в
// список, чтобы выбор мог показать их недоступными
func (s *Service) Candidates(ctx context.Context, partySize int, day domain.Weekday) ([]models.Candidate, error) {
	if partySize <= 0 {
		return nil, domain.ErrInvalidPartySize
	}
	if !day.IsValid() {
		return nil, fmt.Errorf("%w: unknown weekday %q", domain.ErrMalformedSlotKey, day)
	}

	tables, err := s.tableRepo.List(ctx)
	if err != nil {
		s.logger.Error("Candidates: repository error: %v", err)
		if errors.Is(err, domain.ErrMalformedRow) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: Candidates - repository error: %w", ErrInternal, err)
	}

	fitting := make([]*domain.Table, 0, len(tables))
	for _, table := range tables {
		if table.CanSeat(partySize) {
			fitting = append(fitting, table)
		}
	}
	sort.SliceStable(fitting, func(i, j int) bool {
		return fitting[i].Capacity < fitting[j].Capacity
	})

	candidates := make([]models.Candidate, 0, len(fitting)*domain.HoursPerDay)
	for _, table := range fitting {
		hours, err := s.SlotsFor(table, day)
		if err != nil {
			return nil, err
		}
		for _, h := range domain.Hours() {
			candidates = append(candidates, models.Candidate{
				TableID:  table.ID,
				Capacity: table.Capacity,
				Slot:     domain.SlotKey{Day: day, Hour: h},
				Occupied: hours[h],
			})
		}
	}

	return candidates, nil
}

func (s *Service) getTable(ctx context.Context, id int64) (*domain.Table, error) {
	table, err := s.tableRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, tableRepo.ErrTableNotFound) {
			return nil, fmt.Errorf("%w: id=%d", domain.ErrTableNotFound, id)
		}
		if errors.Is(err, domain.ErrMalformedRow) {
			return nil, err
		}
		s.logger.Error("getTable: repository error for table id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: getTable - repository error: %w", ErrInternal, err)
	}
	return table, nil
}
