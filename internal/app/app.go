// Package app собирает зависимости процесса из конфигурации: соединение с БД,
// блокировки, метрики, репозитории, сервисы и use cases.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-TableBookingService/internal/config"
	"github.com/m04kA/SMC-TableBookingService/internal/infra/database"
	reservationRepo "github.com/m04kA/SMC-TableBookingService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-TableBookingService/internal/infra/storage/schema"
	tableRepo "github.com/m04kA/SMC-TableBookingService/internal/infra/storage/table"
	availabilityService "github.com/m04kA/SMC-TableBookingService/internal/service/availability"
	occupancyService "github.com/m04kA/SMC-TableBookingService/internal/service/occupancy"
	reservationsService "github.com/m04kA/SMC-TableBookingService/internal/service/reservations"
	tablesService "github.com/m04kA/SMC-TableBookingService/internal/service/tables"
	cancelReservationUC "github.com/m04kA/SMC-TableBookingService/internal/usecase/cancel_reservation"
	createReservationUC "github.com/m04kA/SMC-TableBookingService/internal/usecase/create_reservation"
	reconcileOccupancyUC "github.com/m04kA/SMC-TableBookingService/internal/usecase/reconcile_occupancy"
	relocateReservationUC "github.com/m04kA/SMC-TableBookingService/internal/usecase/relocate_reservation"
	"github.com/m04kA/SMC-TableBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-TableBookingService/pkg/locker"
	"github.com/m04kA/SMC-TableBookingService/pkg/logger"
	"github.com/m04kA/SMC-TableBookingService/pkg/metrics"
	"github.com/m04kA/SMC-TableBookingService/pkg/txmanager"
)

// App собранное приложение
type App struct {
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *metrics.Metrics // nil, если метрики выключены
	DB      *dbmetrics.DB

	Tables       *tablesService.Service
	Availability *availabilityService.Service
	Reservations *reservationsService.Service
	Occupancy    *occupancyService.Service

	CreateReservation   *createReservationUC.UseCase
	RelocateReservation *relocateReservationUC.UseCase
	CancelReservation   *cancelReservationUC.UseCase
	ReconcileOccupancy  *reconcileOccupancyUC.UseCase

	closers []func() error
}

// New подключается к БД и собирает все компоненты
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: log}

	// Метрики (если включены)
	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled, textfile=%s", cfg.Metrics.TextfilePath)
	}

	// База данных
	dialect := cfg.Database.Dialect()
	sqlDB, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.closers = append(a.closers, sqlDB.Close)

	var recorder dbmetrics.Recorder
	if a.Metrics != nil {
		recorder = a.Metrics
	}
	a.DB = dbmetrics.Wrap(sqlDB, recorder)
	log.Info("Connected to %s database", dialect)

	if cfg.Database.AutoMigrate {
		if err := schema.Migrate(ctx, sqlDB, dialect); err != nil {
			_ = a.Close()
			return nil, err
		}
		log.Info("Schema is up to date")
	}

	// Блокировки
	lk, err := a.newLocker(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	lk = locker.WithTimeout(lk, cfg.Lock.TimeoutDuration())

	txManager := txmanager.NewTransactionManager(a.DB, txmanager.WithSerializableLevel(dialect.SerializableLevel()))

	// Репозитории
	tableRepository := tableRepo.NewRepository(a.DB, dialect)
	reservationRepository := reservationRepo.NewRepository(a.DB, dialect)

	// Сервисы
	a.Occupancy = occupancyService.NewService(tableRepository, a.Metrics, log)
	a.Tables = tablesService.NewService(tableRepository, reservationRepository, txManager, lk, log)
	a.Availability = availabilityService.NewService(tableRepository, log)
	a.Reservations = reservationsService.NewService(reservationRepository, log)

	// Use cases
	a.CreateReservation = createReservationUC.NewUseCase(
		tableRepository,
		reservationRepository,
		a.Occupancy,
		txManager,
		lk,
		a.Metrics,
		log,
		cfg.Booking.MaxPartySize,
	)
	a.RelocateReservation = relocateReservationUC.NewUseCase(
		tableRepository,
		reservationRepository,
		a.Occupancy,
		txManager,
		lk,
		a.Metrics,
		log,
	)
	a.CancelReservation = cancelReservationUC.NewUseCase(
		reservationRepository,
		a.Occupancy,
		txManager,
		lk,
		a.Metrics,
		log,
	)
	a.ReconcileOccupancy = reconcileOccupancyUC.NewUseCase(
		tableRepository,
		reservationRepository,
		a.Occupancy,
		txManager,
		lk,
		a.Metrics,
		log,
	)

	return a, nil
}

func (a *App) newLocker(ctx context.Context) (locker.Locker, error) {
	switch a.Config.Lock.Backend {
	case "", "local":
		a.Logger.Info("Using in-process table locks")
		return locker.NewLocal(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     a.Config.Lock.RedisAddr,
			Password: a.Config.Lock.RedisPassword,
			DB:       a.Config.Lock.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis %s: %w", a.Config.Lock.RedisAddr, err)
		}
		a.closers = append(a.closers, client.Close)
		a.Logger.Info("Using redis table locks at %s (ttl=%s)", a.Config.Lock.RedisAddr, a.Config.Lock.TTLDuration())
		return locker.NewRedis(client, a.Config.Lock.TTLDuration()), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", a.Config.Lock.Backend)
	}
}

// Migrate применяет схему к БД
func (a *App) Migrate(ctx context.Context) error {
	return schema.Migrate(ctx, a.DB.Unwrap(), a.Config.Database.Dialect())
}

// WriteMetrics сохраняет метрики в textfile, если они включены
func (a *App) WriteMetrics() error {
	if a.Metrics == nil || a.Config.Metrics.TextfilePath == "" {
		return nil
	}
	return a.Metrics.WriteTextfile(a.Config.Metrics.TextfilePath)
}

// Close освобождает ресурсы в обратном порядке
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
