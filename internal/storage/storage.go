package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"taskboard/internal/models"
)

// ErrNotFound - ни одна строка не подошла под условие запроса
var ErrNotFound = errors.New("task not found")

// Storage интерфейс для абстракции хранилища задач
type Storage interface {
	// CreateTask вставляет задачу с completed=false; id и created_at назначает хранилище
	CreateTask(ctx context.Context, title string, description *string) (*models.Task, error)
	// ListIncomplete возвращает незакрытые задачи, новые первыми (created_at DESC, id DESC)
	ListIncomplete(ctx context.Context, limit int) ([]models.Task, error)
	// CompleteTask атомарно закрывает открытую задачу, иначе ErrNotFound
	CompleteTask(ctx context.Context, id int64) (*models.DoneTask, error)
	GetTask(ctx context.Context, id int64) (*models.Task, error)

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// In-memory хранилище для тестов и режима STORE_DRIVER=memory
type MemoryStorage struct {
	mu     sync.Mutex
	tasks  map[int64]models.Task
	nextID int64
	now    func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		tasks:  make(map[int64]models.Task),
		nextID: 1,
		now:    time.Now,
	}
}

func (m *MemoryStorage) CreateTask(_ context.Context, title string, description *string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task := models.Task{
		ID:          m.nextID,
		Title:       title,
		Description: cloneString(description),
		CreatedAt:   m.now().UTC(),
	}
	m.tasks[task.ID] = task
	m.nextID++

	return copyTask(task), nil
}

func (m *MemoryStorage) ListIncomplete(_ context.Context, limit int) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tasks := make([]models.Task, 0, len(m.tasks))
	for _, task := range m.tasks {
		if !task.Completed {
			tasks = append(tasks, *copyTask(task))
		}
	}

	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID > tasks[j].ID
	})

	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}
	return tasks, nil
}

func (m *MemoryStorage) CompleteTask(_ context.Context, id int64) (*models.DoneTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok || task.Completed {
		return nil, ErrNotFound
	}

	now := m.now().UTC()
	task.Completed = true
	task.CompletedAt = &now
	m.tasks[id] = task

	return &models.DoneTask{ID: task.ID, Title: task.Title}, nil
}

func (m *MemoryStorage) GetTask(_ context.Context, id int64) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyTask(task), nil
}

func (m *MemoryStorage) Migrate(context.Context) error { return nil }

func (m *MemoryStorage) Ping(context.Context) error { return nil }

func (m *MemoryStorage) Close() error { return nil }

// copyTask отвязывает указатели от внутреннего состояния
func copyTask(task models.Task) *models.Task {
	task.Description = cloneString(task.Description)
	if task.CompletedAt != nil {
		at := *task.CompletedAt
		task.CompletedAt = &at
	}
	return &task
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
