package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"

	"github.com/m04kA/SMC-TableBookingService/pkg/sqlbuilder"
)

// envPrefix префикс переменных окружения, переопределяющих config.toml
const envPrefix = "TABLEBOOKING_"

// Config конфигурация сервиса
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Logs      LogsConfig      `toml:"logs"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Lock      LockConfig      `toml:"lock"`
	Booking   BookingConfig   `toml:"booking"`
	Selection SelectionConfig `toml:"selection"`
	Reconcile ReconcileConfig `toml:"reconcile"`
}

// DatabaseConfig параметры подключения к БД
type DatabaseConfig struct {
	Driver          string `toml:"driver"`
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	Path            string `toml:"path"` // файл SQLite, ":memory:" для памяти
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
	AutoMigrate     bool   `toml:"auto_migrate"`
}

// LogsConfig параметры логирования
type LogsConfig struct {
	File  string `toml:"file"` // пусто - stderr
	Level string `toml:"level"`
}

// MetricsConfig параметры метрик
type MetricsConfig struct {
	Enabled         bool   `toml:"enabled"`
	ServiceName     string `toml:"service_name"`
	TextfilePath    string `toml:"textfile_path"`
	PoolStatsPeriod int    `toml:"pool_stats_period"` // секунды
}

// LockConfig параметры блокировок столов
type LockConfig struct {
	Backend       string `toml:"backend"` // local | redis
	Timeout       int    `toml:"timeout"` // секунды ожидания захвата
	TTL           int    `toml:"ttl"`     // секунды жизни ключа в Redis
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// BookingConfig бизнес-ограничения бронирования
type BookingConfig struct {
	MaxPartySize int `toml:"max_party_size"`
}

// SelectionConfig параметры интерактивного выбора
type SelectionConfig struct {
	MaxAttempts int `toml:"max_attempts"`
}

// ReconcileConfig параметры сверки занятости
type ReconcileConfig struct {
	Schedule string `toml:"schedule"` // cron-выражение для reconcile -every
	Repair   bool   `toml:"repair"`
}

// Load читает конфигурацию из TOML файла, затем .env и переменные окружения
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	// .env необязателен
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default конфигурация по умолчанию: локальный файл SQLite
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          "sqlite",
			Path:            "tablebooking.db",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			AutoMigrate:     true,
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			ServiceName:     "table-booking",
			PoolStatsPeriod: 15,
		},
		Lock: LockConfig{
			Backend:   "local",
			Timeout:   10,
			TTL:       30,
			RedisAddr: "localhost:6379",
		},
		Booking: BookingConfig{
			MaxPartySize: 8,
		},
		Selection: SelectionConfig{
			MaxAttempts: 3,
		},
		Reconcile: ReconcileConfig{
			Schedule: "@every 1h",
		},
	}
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"DB_DRIVER":      &c.Database.Driver,
		"DB_HOST":        &c.Database.Host,
		"DB_USER":        &c.Database.User,
		"DB_PASSWORD":    &c.Database.Password,
		"DB_NAME":        &c.Database.DBName,
		"DB_SSLMODE":     &c.Database.SSLMode,
		"DB_PATH":        &c.Database.Path,
		"LOG_FILE":       &c.Logs.File,
		"LOG_LEVEL":      &c.Logs.Level,
		"METRICS_FILE":   &c.Metrics.TextfilePath,
		"LOCK_BACKEND":   &c.Lock.Backend,
		"REDIS_ADDR":     &c.Lock.RedisAddr,
		"REDIS_PASSWORD": &c.Lock.RedisPassword,
		"RECONCILE_CRON": &c.Reconcile.Schedule,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"DB_PORT":        &c.Database.Port,
		"REDIS_DB":       &c.Lock.RedisDB,
		"MAX_PARTY_SIZE": &c.Booking.MaxPartySize,
		"MAX_ATTEMPTS":   &c.Selection.MaxAttempts,
	}
	for name, dst := range ints {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s=%q: %w", envPrefix, name, v, err)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv(envPrefix + "METRICS_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sMETRICS_ENABLED=%q: %w", envPrefix, v, err)
		}
		c.Metrics.Enabled = b
	}

	return nil
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	dialect, err := sqlbuilder.ParseDialect(c.Database.Driver)
	if err != nil {
		return fmt.Errorf("database.driver: %w", err)
	}
	if dialect == sqlbuilder.SQLite && c.Database.Path == "" {
		return errors.New("database.path is required for sqlite")
	}
	if dialect != sqlbuilder.SQLite && (c.Database.Host == "" || c.Database.DBName == "") {
		return fmt.Errorf("database.host and database.dbname are required for %s", dialect)
	}

	switch c.Lock.Backend {
	case "local":
	case "redis":
		if c.Lock.RedisAddr == "" {
			return errors.New("lock.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("lock.backend: unknown backend %q", c.Lock.Backend)
	}

	if c.Booking.MaxPartySize <= 0 {
		return errors.New("booking.max_party_size must be positive")
	}
	if c.Selection.MaxAttempts <= 0 {
		return errors.New("selection.max_attempts must be positive")
	}
	return nil
}

// Dialect возвращает диалект SQL для настроенного драйвера
func (d DatabaseConfig) Dialect() sqlbuilder.Dialect {
	dialect, _ := sqlbuilder.ParseDialect(d.Driver)
	return dialect
}

// DSN строка подключения для выбранного драйвера
func (d DatabaseConfig) DSN() string {
	switch d.Dialect() {
	case sqlbuilder.Postgres:
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
	case sqlbuilder.MySQL:
		mc := mysql.NewConfig()
		mc.User = d.User
		mc.Passwd = d.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
		mc.DBName = d.DBName
		mc.ParseTime = true
		// UPDATE без изменений должен возвращать 1 затронутую строку
		mc.ClientFoundRows = true
		return mc.FormatDSN()
	default:
		if d.Path == ":memory:" {
			return ":memory:?_foreign_keys=on"
		}
		return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", d.Path)
	}
}

// ConnMaxLifetimeDuration время жизни соединения
func (d DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// TimeoutDuration время ожидания захвата блокировки
func (l LockConfig) TimeoutDuration() time.Duration {
	return time.Duration(l.Timeout) * time.Second
}

// TTLDuration время жизни ключа блокировки
func (l LockConfig) TTLDuration() time.Duration {
	return time.Duration(l.TTL) * time.Second
}
