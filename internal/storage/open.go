package storage

import (
	"context"
	"fmt"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options выбирает и параметризует реализацию Storage
type Options struct {
	Driver      string
	SQLitePath  string
	DatabaseURL string
}

// Open создает хранилище по имени драйвера. Владелец обязан вызвать Close.
func Open(ctx context.Context, opts Options) (Storage, error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemoryStorage(), nil
	case DriverSQLite, "":
		return NewSQLiteStorage(ctx, opts.SQLitePath)
	case DriverPostgres:
		return NewPostgresStorage(ctx, opts.DatabaseURL)
	default:
		return nil, fmt.Errorf("неизвестный драйвер хранилища %q", opts.Driver)
	}
}
