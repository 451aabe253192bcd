package main

import (
	"context"
	"log"
	"time"

	"taskboard/internal/config"
	"taskboard/internal/storage"
)

func main() {
	log.Println("🔄 Миграция схемы задач...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ Ошибка конфигурации:", err)
	}
	if cfg.StoreDriver == storage.DriverMemory {
		log.Println("⚠️ STORE_DRIVER=memory: мигрировать нечего")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := storage.Open(ctx, cfg.StorageOptions())
	if err != nil {
		log.Fatal("❌ Ошибка подключения:", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Fatal("❌ Ошибка создания таблицы:", err)
	}

	log.Printf("🎉 Миграция завершена успешно! Драйвер: %s", cfg.StoreDriver)
}
