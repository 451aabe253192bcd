package client

import (
	"context"
	"sync"

	"taskboard/internal/manager"
	"taskboard/internal/models"
)

// API - то, что Board нужно от сервиса; *Client его реализует
type API interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	CreateTask(ctx context.Context, title string, description *string) (*models.Task, error)
	MarkDone(ctx context.Context, id int64) (*models.DoneTask, error)
}

// BoardState - снимок состояния доски для отрисовки
type BoardState struct {
	Tasks   []models.Task
	Loading bool
	Err     error
}

// Board хранит локальное состояние списка: ошибки API запоминаются и
// возвращаются, но уже показанный список при этом не теряется
type Board struct {
	api API

	mu      sync.Mutex
	tasks   []models.Task
	loading bool
	err     error
}

func NewBoard(api API) *Board {
	return &Board{api: api, tasks: []models.Task{}}
}

// Refresh заменяет список ответом сервиса
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.Lock()
	b.loading = true
	b.mu.Unlock()

	tasks, err := b.api.ListTasks(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = false
	b.err = err
	if err != nil {
		return err
	}
	b.tasks = truncate(tasks)
	return nil
}

// Add создает задачу и ставит ее в начало списка
func (b *Board) Add(ctx context.Context, title, description string) (*models.Task, error) {
	var desc *string
	if description != "" {
		desc = &description
	}

	task, err := b.api.CreateTask(ctx, title, desc)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
	if err != nil {
		return nil, err
	}
	b.tasks = truncate(append([]models.Task{*task}, b.tasks...))
	return task, nil
}

// Done закрывает задачу и убирает ее из списка
func (b *Board) Done(ctx context.Context, id int64) (*models.DoneTask, error) {
	done, err := b.api.MarkDone(ctx, id)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
	if err != nil {
		return nil, err
	}

	kept := b.tasks[:0:0]
	for _, task := range b.tasks {
		if task.ID != id {
			kept = append(kept, task)
		}
	}
	b.tasks = kept
	return done, nil
}

func (b *Board) State() BoardState {
	b.mu.Lock()
	defer b.mu.Unlock()

	tasks := make([]models.Task, len(b.tasks))
	copy(tasks, b.tasks)
	return BoardState{Tasks: tasks, Loading: b.loading, Err: b.err}
}

// ClearError сбрасывает последнюю ошибку после того, как ее показали
func (b *Board) ClearError() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = nil
}

func truncate(tasks []models.Task) []models.Task {
	if len(tasks) > manager.RecentLimit {
		return tasks[:manager.RecentLimit]
	}
	return tasks
}
