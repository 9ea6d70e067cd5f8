package metrics

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "table_booking"

// Результаты операций для label "result"
const (
	ResultOK            = "ok"
	ResultRejected      = "rejected"
	ResultPartialCommit = "partial_commit"
	ResultError         = "error"
)

// Metrics набор метрик сервиса.
// Все методы безопасны для nil-получателя: при выключенных метриках передаётся nil.
type Metrics struct {
	registry *prometheus.Registry

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	partialCommits    *prometheus.CounterVec
	occupancyChanges  *prometheus.CounterVec
	discrepancies     *prometheus.GaugeVec

	dbQueryDuration *prometheus.HistogramVec
	dbOpenConns     prometheus.Gauge
	dbInUseConns    prometheus.Gauge
	dbIdleConns     prometheus.Gauge
	dbWaitCount     prometheus.Gauge
}

// New создает и регистрирует метрики в собственном registry
func New(serviceName string) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "operations_total",
			Help:        "Reservation lifecycle and table operations by result.",
			ConstLabels: constLabels,
		}, []string{"operation", "result"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "operation_duration_seconds",
			Help:        "Duration of lifecycle operations including lock wait.",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"operation"}),
		partialCommits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "partial_commits_total",
			Help:        "Lifecycle operations that failed between their writes.",
			ConstLabels: constLabels,
		}, []string{"operation", "rolled_back"}),
		occupancyChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "occupancy_changes_total",
			Help:        "Slot flag changes written to table timetables.",
			ConstLabels: constLabels,
		}, []string{"direction"}),
		discrepancies: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "reconcile_discrepancies",
			Help:        "Discrepancies found by the last occupancy reconciliation.",
			ConstLabels: constLabels,
		}, []string{"kind"}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "db_query_duration_seconds",
			Help:        "Duration of database calls.",
			ConstLabels: constLabels,
			Buckets:     []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"kind", "status"}),
		dbOpenConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "db_open_connections", Help: "Open connections.", ConstLabels: constLabels,
		}),
		dbInUseConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "db_in_use_connections", Help: "Connections in use.", ConstLabels: constLabels,
		}),
		dbIdleConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "db_idle_connections", Help: "Idle connections.", ConstLabels: constLabels,
		}),
		dbWaitCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "db_wait_count", Help: "Total connections waited for.", ConstLabels: constLabels,
		}),
	}

	m.registry.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.partialCommits,
		m.occupancyChanges,
		m.discrepancies,
		m.dbQueryDuration,
		m.dbOpenConns,
		m.dbInUseConns,
		m.dbIdleConns,
		m.dbWaitCount,
	)

	return m
}

// Registry возвращает registry с метриками сервиса
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveOperation учитывает выполненную операцию
func (m *Metrics) ObserveOperation(operation, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, result).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// IncPartialCommit учитывает прерванную операцию жизненного цикла
func (m *Metrics) IncPartialCommit(operation string, rolledBack bool) {
	if m == nil {
		return
	}
	m.partialCommits.WithLabelValues(operation, fmt.Sprintf("%t", rolledBack)).Inc()
}

// IncOccupancyChange учитывает изменение флага занятости слота
func (m *Metrics) IncOccupancyChange(occupied bool) {
	if m == nil {
		return
	}
	direction := "release"
	if occupied {
		direction = "occupy"
	}
	m.occupancyChanges.WithLabelValues(direction).Inc()
}

// SetDiscrepancies фиксирует количество расхождений по виду
func (m *Metrics) SetDiscrepancies(kind string, count int) {
	if m == nil {
		return
	}
	m.discrepancies.WithLabelValues(kind).Set(float64(count))
}

// ObserveQuery учитывает обращение к БД
func (m *Metrics) ObserveQuery(kind string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil && err != sql.ErrNoRows {
		status = "error"
	}
	m.dbQueryDuration.WithLabelValues(kind, status).Observe(duration.Seconds())
}

// SetPoolStats обновляет метрики пула соединений
func (m *Metrics) SetPoolStats(stats sql.DBStats) {
	if m == nil {
		return
	}
	m.dbOpenConns.Set(float64(stats.OpenConnections))
	m.dbInUseConns.Set(float64(stats.InUse))
	m.dbIdleConns.Set(float64(stats.Idle))
	m.dbWaitCount.Set(float64(stats.WaitCount))
}

// WriteTextfile сохраняет текущие значения в формате textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
