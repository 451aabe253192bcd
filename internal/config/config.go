package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"taskboard/internal/logger"
	"taskboard/internal/storage"
)

type Config struct {
	Port            int
	StoreDriver     string
	SQLitePath      string
	DatabaseURL     string
	LogLevel        logger.Level
	MetricsEnabled  bool
	AutoMigrate     bool
	ShutdownTimeout time.Duration
	APIBaseURL      string
	TelegramToken   string
}

func Default() Config {
	return Config{
		Port:            4000,
		StoreDriver:     storage.DriverSQLite,
		SQLitePath:      "./data/todoapp.db",
		LogLevel:        logger.LevelInfo,
		MetricsEnabled:  true,
		AutoMigrate:     true,
		ShutdownTimeout: 10 * time.Second,
		APIBaseURL:      "http://localhost:4000/api",
	}
}

// Load читает .env (если есть) и переменные окружения поверх значений по умолчанию
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("ошибка чтения .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv собирает конфигурацию из произвольного источника переменных
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("PORT: %w", err)
		}
		cfg.Port = port
	}
	if v, ok := get("STORE_DRIVER"); ok {
		cfg.StoreDriver = strings.ToLower(v)
	}
	if v, ok := get("SQLITE_PATH"); ok {
		cfg.SQLitePath = v
	}
	if v, ok := get("DATABASE_URL"); ok {
		cfg.DatabaseURL = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		lvl, err := logger.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = lvl
	}
	if v, ok := get("METRICS_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("METRICS_ENABLED: %w", err)
		}
		cfg.MetricsEnabled = b
	}
	if v, ok := get("AUTO_MIGRATE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("AUTO_MIGRATE: %w", err)
		}
		cfg.AutoMigrate = b
	}
	if v, ok := get("SHUTDOWN_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	if v, ok := get("API_BASE_URL"); ok {
		cfg.APIBaseURL = strings.TrimRight(v, "/")
	}
	if v, ok := get("TELEGRAM_TOKEN"); ok {
		cfg.TelegramToken = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("некорректный порт %d", c.Port)
	}
	switch c.StoreDriver {
	case storage.DriverMemory:
	case storage.DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH обязателен для драйвера sqlite")
		}
	case storage.DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL обязателен для драйвера postgres")
		}
	default:
		return fmt.Errorf("неизвестный STORE_DRIVER %q", c.StoreDriver)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT должен быть положительным, получено %s", c.ShutdownTimeout)
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c Config) StorageOptions() storage.Options {
	return storage.Options{
		Driver:      c.StoreDriver,
		SQLitePath:  c.SQLitePath,
		DatabaseURL: c.DatabaseURL,
	}
}
