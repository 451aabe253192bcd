package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskboard/internal/config"
	"taskboard/internal/logger"
	"taskboard/internal/manager"
	"taskboard/internal/server"
	"taskboard/internal/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Error(ctx, err, "Ошибка загрузки конфигурации")
		return 1
	}
	logger.SetLevel(cfg.LogLevel)
	logger.Info(ctx, "🚀 Запуск сервера задач...", "driver", cfg.StoreDriver, "port", cfg.Port)

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	store, err := storage.Open(startCtx, cfg.StorageOptions())
	if err != nil {
		logger.Error(ctx, err, "Ошибка инициализации хранилища")
		return 1
	}

	if cfg.AutoMigrate {
		if err := store.Migrate(startCtx); err != nil {
			logger.Error(ctx, err, "Ошибка миграции")
			store.Close()
			return 1
		}
	}

	var opts []server.Option
	if cfg.MetricsEnabled {
		opts = append(opts, server.WithMetricsHandler(promhttp.Handler()))
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.NewRouter(manager.NewTaskManager(store), opts...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info(ctx, "HTTP сервер слушает", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, err, "HTTP сервер остановился с ошибкой")
			os.Exit(1)
		}
	}()

	// Сначала перестаем принимать запросы, потом отпускаем хранилище
	wait := gfshutdown.GracefulShutdown(ctx, cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		"http-server": func(ctx context.Context) error {
			err := srv.Shutdown(ctx)
			if closeErr := store.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
			logger.Info(ctx, "Сервер и хранилище остановлены")
			return err
		},
	})

	code := <-wait
	logger.Info(ctx, "Процесс завершен", "code", code)
	return code
}
