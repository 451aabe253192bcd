package storage

import (
	"context"
	"errors"
	"fmt"

	"taskboard/internal/logger"
	"taskboard/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS task (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT,
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ,
	CONSTRAINT task_completed_at_consistent CHECK ((completed_at IS NOT NULL) = completed)
);
CREATE INDEX IF NOT EXISTS idx_task_open_recent ON task (completed, created_at DESC, id DESC);`

const taskColumns = `id, title, description, completed, created_at, completed_at`

// PostgresStorage - хранилище на pgx; время назначает сам сервер БД (now())
type PostgresStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresStorage(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка подключения к postgres: %w", err)
	}

	logger.Info(ctx, "Postgres пул инициализирован", "max_conns", pool.Config().MaxConns)
	return &PostgresStorage{pool: pool}, nil
}

func (s *PostgresStorage) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("ошибка миграции postgres: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStorage) CreateTask(ctx context.Context, title string, description *string) (*models.Task, error) {
	query := `INSERT INTO task (title, description) VALUES ($1, $2) RETURNING ` + taskColumns

	task, err := scanPgTask(s.pool.QueryRow(ctx, query, title, description))
	if err != nil {
		return nil, fmt.Errorf("ошибка вставки задачи: %w", err)
	}
	return task, nil
}

func (s *PostgresStorage) ListIncomplete(ctx context.Context, limit int) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM task
	WHERE completed = false
	ORDER BY created_at DESC, id DESC
	LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки задач: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanPgTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// CompleteTask опирается на блокировку строки в UPDATE: второй конкурент
// после ожидания перечитывает условие completed = false и не находит строку
func (s *PostgresStorage) CompleteTask(ctx context.Context, id int64) (*models.DoneTask, error) {
	query := `UPDATE task SET completed = true, completed_at = now()
	WHERE id = $1 AND completed = false
	RETURNING id, title`

	var done models.DoneTask
	if err := s.pool.QueryRow(ctx, query, id).Scan(&done.ID, &done.Title); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка закрытия задачи %d: %w", id, err)
	}
	return &done, nil
}

func (s *PostgresStorage) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM task WHERE id = $1`

	task, err := scanPgTask(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return task, nil
}

func scanPgTask(row pgx.Row) (*models.Task, error) {
	var task models.Task
	err := row.Scan(&task.ID, &task.Title, &task.Description, &task.Completed, &task.CreatedAt, &task.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &task, nil
}
