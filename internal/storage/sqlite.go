package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"taskboard/internal/logger"
	"taskboard/internal/models"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT,
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at DATETIME NOT NULL,
	completed_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_tasks_open_recent ON tasks (completed, created_at DESC, id DESC);`

type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStorage(ctx context.Context, dbPath string) (*SQLiteStorage, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("ошибка создания директории БД: %w", err)
		}
	}

	// _time_format=sqlite: время пишется как "2006-01-02 15:04:05.999999999-07:00",
	// строки в UTC сортируются хронологически
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_time_format=sqlite"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия БД: %w", err)
	}

	// Один писатель: SQLite все равно сериализует запись, а :memory: живет в одном соединении
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	s := &SQLiteStorage{db: db, now: time.Now}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info(ctx, "SQLite база данных инициализирована", "path", dbPath)
	return s, nil
}

func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(sqliteSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ошибка миграции sqlite: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Закрытие соединения
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) CreateTask(ctx context.Context, title string, description *string) (*models.Task, error) {
	query := `INSERT INTO tasks (title, description, completed, created_at) VALUES (?, ?, ?, ?)`

	now := s.now().UTC()
	result, err := s.db.ExecContext(ctx, query, title, nullString(description), false, now)
	if err != nil {
		return nil, fmt.Errorf("ошибка вставки задачи: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.Task{
		ID:          id,
		Title:       title,
		Description: cloneString(description),
		CreatedAt:   now,
	}, nil
}

func (s *SQLiteStorage) ListIncomplete(ctx context.Context, limit int) ([]models.Task, error) {
	query := `
	SELECT id, title, description, completed, created_at, completed_at
	FROM tasks WHERE completed = FALSE
	ORDER BY created_at DESC, id DESC
	LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки задач: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// CompleteTask - одно условное UPDATE; гонку двух вызовов выигрывает только один
func (s *SQLiteStorage) CompleteTask(ctx context.Context, id int64) (*models.DoneTask, error) {
	query := `
	UPDATE tasks SET completed = TRUE, completed_at = ?
	WHERE id = ? AND completed = FALSE
	RETURNING id, title`

	var done models.DoneTask
	err := s.db.QueryRowContext(ctx, query, s.now().UTC(), id).Scan(&done.ID, &done.Title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка закрытия задачи %d: %w", id, err)
	}
	return &done, nil
}

func (s *SQLiteStorage) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	query := `
	SELECT id, title, description, completed, created_at, completed_at
	FROM tasks WHERE id = ?`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return task, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var task models.Task
	var description sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(&task.ID, &task.Title, &description, &task.Completed, &task.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		task.Description = &description.String
	}
	if completedAt.Valid {
		at := completedAt.Time
		task.CompletedAt = &at
	}
	return &task, nil
}

// Вспомогательная функция для сканирования задач
func scanTasks(rows *sql.Rows) ([]models.Task, error) {
	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
