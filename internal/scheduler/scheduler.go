// Package scheduler периодический запуск фоновых задач по cron-выражению
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Job задача, выполняемая по расписанию
type Job func(ctx context.Context) error

// Scheduler обертка над cron: пропускает запуск, пока предыдущий не завершился,
// и перехватывает панику задачи
type Scheduler struct {
	cron   *cron.Cron
	logger Logger
}

// New создает планировщик. Расписание поддерживает дескрипторы вида "@every 1h"
func New(logger Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

// Add регистрирует задачу. Ошибка задачи логируется и не останавливает расписание
func (s *Scheduler) Add(ctx context.Context, name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.logger.Info("Scheduler: running %s", name)
		if err := job(ctx); err != nil {
			s.logger.Error("Scheduler: %s failed: %v", name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s with %q: %w", name, spec, err)
	}
	return nil
}

// Run запускает расписание и блокируется до отмены контекста,
// затем ждет завершения выполняющихся задач
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	s.logger.Info("Scheduler: started with %d jobs", len(s.cron.Entries()))

	<-ctx.Done()

	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info("Scheduler: stopped")
}

// cronLogger адаптер логгера под cron.Logger
type cronLogger struct {
	logger Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info("cron: %s %v", msg, keysAndValues)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: %s: %v %v", msg, err, keysAndValues)
}
