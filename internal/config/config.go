package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix префикс переменных окружения, переопределяющих config.toml
// Например: SMC_DATABASE_PASSWORD, SMC_AUTH_JWT_SECRET.
// У полей нет коротких имён envconfig, иначе без префикса подхватились бы USER, PATH, HOST
const EnvPrefix = "SMC"

// Config конфигурация сервиса
type Config struct {
	Server       ServerConfig       `toml:"server" envconfig:"SERVER"`
	Database     DatabaseConfig     `toml:"database" envconfig:"DATABASE"`
	Logs         LogsConfig         `toml:"logs" envconfig:"LOGS"`
	Metrics      MetricsConfig      `toml:"metrics" envconfig:"METRICS"`
	Auth         AuthConfig         `toml:"auth" envconfig:"AUTH"`
	Reservations ReservationsConfig `toml:"reservations" envconfig:"RESERVATIONS"`
	Maintenance  MaintenanceConfig  `toml:"maintenance" envconfig:"MAINTENANCE"`
	Outbox       OutboxConfig       `toml:"outbox" envconfig:"OUTBOX"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port" split_words:"true"`
	ReadTimeout     int `toml:"read_timeout" split_words:"true"`     // секунды
	WriteTimeout    int `toml:"write_timeout" split_words:"true"`    // секунды
	IdleTimeout     int `toml:"idle_timeout" split_words:"true"`     // секунды
	ShutdownTimeout int `toml:"shutdown_timeout" split_words:"true"` // секунды
}

type DatabaseConfig struct {
	Host            string `toml:"host" split_words:"true"`
	Port            int    `toml:"port" split_words:"true"`
	User            string `toml:"user" split_words:"true"`
	Password        string `toml:"password" split_words:"true"`
	DBName          string `toml:"dbname" split_words:"true"`
	SSLMode         string `toml:"sslmode" split_words:"true"`
	MaxOpenConns    int    `toml:"max_open_conns" split_words:"true"`
	MaxIdleConns    int    `toml:"max_idle_conns" split_words:"true"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime" split_words:"true"` // секунды
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, sslMode)
}

type LogsConfig struct {
	File  string `toml:"file" split_words:"true"`
	Level string `toml:"level" split_words:"true"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled" split_words:"true"`
	Path        string `toml:"path" split_words:"true"`
	ServiceName string `toml:"service_name" split_words:"true"`
}

type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret" split_words:"true"`
}

// ReservationsConfig правила жизненного цикла бронирования
type ReservationsConfig struct {
	// Допуск на check-in в минутах вокруг начала бронирования (±N)
	// Площадка может переопределить значение в venues.check_in_tolerance_minutes
	CheckInToleranceMinutes int `toml:"check_in_tolerance_minutes" split_words:"true"`
}

// MaintenanceConfig правила планирования обслуживания кортов
type MaintenanceConfig struct {
	// Буфер перед существующим окном обслуживания, в часах
	ConflictBufferHours int `toml:"conflict_buffer_hours" split_words:"true"`
}

// OutboxConfig доставка уведомлений из outbox в RabbitMQ
type OutboxConfig struct {
	Enabled             bool   `toml:"enabled" split_words:"true"`
	RabbitURL           string `toml:"rabbit_url" split_words:"true"`
	Exchange            string `toml:"exchange" split_words:"true"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds" split_words:"true"`
	BatchSize           int    `toml:"batch_size" split_words:"true"`
	MaxAttempts         int    `toml:"max_attempts" split_words:"true"`
}

// Default значения по умолчанию, поверх которых накладывается config.toml
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 10,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logs: LogsConfig{Level: "info"},
		Metrics: MetricsConfig{
			Path:        "/metrics",
			ServiceName: "smc-facility-service",
		},
		Reservations: ReservationsConfig{CheckInToleranceMinutes: 30},
		Maintenance:  MaintenanceConfig{ConflictBufferHours: 24},
		Outbox: OutboxConfig{
			Exchange:            "notifications.exchange",
			PollIntervalSeconds: 5,
			BatchSize:           50,
			MaxAttempts:         10,
		},
	}
}

// Load читает config.toml, затем .env и переменные окружения с префиксом SMC
// Отсутствующий файл конфигурации не является ошибкой, если всё задано через окружение
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: stat %s: %w", path, err)
	}

	_ = godotenv.Load()

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config: env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	switch {
	case c.Server.HTTPPort <= 0:
		return errors.New("config: server.http_port must be positive")
	case c.Database.DBName == "":
		return errors.New("config: database.dbname is required")
	case c.Database.Port <= 0:
		return errors.New("config: database.port must be positive")
	case c.Auth.JWTSecret == "":
		return errors.New("config: auth.jwt_secret is required")
	case c.Reservations.CheckInToleranceMinutes <= 0:
		return errors.New("config: reservations.check_in_tolerance_minutes must be positive")
	case c.Maintenance.ConflictBufferHours < 0:
		return errors.New("config: maintenance.conflict_buffer_hours must not be negative")
	case c.Outbox.Enabled && c.Outbox.RabbitURL == "":
		return errors.New("config: outbox.rabbit_url is required when outbox is enabled")
	}
	return nil
}
