package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/models"
)

// storageFactory возвращает чистое хранилище для одного подтеста
type storageFactory func(t *testing.T) Storage

func newSQLite(t *testing.T) Storage {
	t.Helper()
	s, err := NewSQLiteStorage(context.Background(), filepath.Join(t.TempDir(), "data", "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newPostgres(t *testing.T) Storage {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Skipping test: TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	s, err := NewPostgresStorage(ctx, url)
	if err != nil {
		t.Skipf("Skipping test: database not available: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Migrate(ctx))
	_, err = s.pool.Exec(ctx, "TRUNCATE task RESTART IDENTITY")
	require.NoError(t, err)
	return s
}

func backends() map[string]storageFactory {
	return map[string]storageFactory{
		"memory":   func(*testing.T) Storage { return NewMemoryStorage() },
		"sqlite":   newSQLite,
		"postgres": newPostgres,
	}
}

func TestStorage(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Run("CreateTask", func(t *testing.T) { testCreateTask(t, factory(t)) })
			t.Run("ListIncomplete", func(t *testing.T) { testListIncomplete(t, factory(t)) })
			t.Run("CompleteTask", func(t *testing.T) { testCompleteTask(t, factory(t)) })
			t.Run("CompleteTaskConcurrent", func(t *testing.T) { testCompleteTaskConcurrent(t, factory(t)) })
			t.Run("GetTaskMissing", func(t *testing.T) { testGetTaskMissing(t, factory(t)) })
		})
	}
}

func testCreateTask(t *testing.T, s Storage) {
	ctx := context.Background()

	first, err := s.CreateTask(ctx, "Buy groceries", models.StringPtr("Milk, eggs, bread"))
	require.NoError(t, err)
	second, err := s.CreateTask(ctx, "Без описания", nil)
	require.NoError(t, err)

	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID, "id назначаются по возрастанию и не переиспользуются")
	assert.False(t, first.Completed)
	assert.Nil(t, first.CompletedAt)
	assert.False(t, first.CreatedAt.IsZero())

	stored, err := s.GetTask(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy groceries", stored.Title)
	require.NotNil(t, stored.Description)
	assert.Equal(t, "Milk, eggs, bread", *stored.Description)
	assert.WithinDuration(t, first.CreatedAt, stored.CreatedAt, time.Millisecond)

	stored, err = s.GetTask(ctx, second.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Description, "отсутствующее описание хранится как NULL")
}

func testListIncomplete(t *testing.T, s Storage) {
	ctx := context.Background()

	tasks, err := s.ListIncomplete(ctx, 5)
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)

	var ids []int64
	for i := 0; i < 7; i++ {
		task, err := s.CreateTask(ctx, fmt.Sprintf("Задача %d", i), nil)
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}
	_, err = s.CompleteTask(ctx, ids[6])
	require.NoError(t, err)

	tasks, err = s.ListIncomplete(ctx, 5)
	require.NoError(t, err)
	require.Len(t, tasks, 5)

	want := []int64{ids[5], ids[4], ids[3], ids[2], ids[1]}
	for i, task := range tasks {
		assert.Equal(t, want[i], task.ID)
		assert.False(t, task.Completed)
		assert.Nil(t, task.CompletedAt)
	}
}

func testCompleteTask(t *testing.T, s Storage) {
	ctx := context.Background()

	task, err := s.CreateTask(ctx, "Закрыть меня", nil)
	require.NoError(t, err)

	done, err := s.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DoneTask{ID: task.ID, Title: "Закрыть меня"}, *done)

	stored, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, stored.Completed)
	require.NotNil(t, stored.CompletedAt, "completed_at задан тогда и только тогда, когда completed")
	assert.False(t, stored.CompletedAt.Before(stored.CreatedAt.Add(-time.Second)))

	_, err = s.CompleteTask(ctx, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.CompleteTask(ctx, 99999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func testCompleteTaskConcurrent(t *testing.T, s Storage) {
	ctx := context.Background()

	task, err := s.CreateTask(ctx, "Гонка", nil)
	require.NoError(t, err)

	const callers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CompleteTask(ctx, task.ID)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrNotFound)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func testGetTaskMissing(t *testing.T, s Storage) {
	_, err := s.GetTask(context.Background(), 424242)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorageTieBreak(t *testing.T) {
	s := NewMemoryStorage()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := s.CreateTask(ctx, fmt.Sprint(i), nil)
		require.NoError(t, err)
	}

	tasks, err := s.ListIncomplete(ctx, 5)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{tasks[0].ID, tasks[1].ID, tasks[2].ID}, "равные created_at упорядочены по id DESC")
}

func TestSQLiteStorageTieBreak(t *testing.T) {
	s, err := NewSQLiteStorage(context.Background(), ":memory:")
	require.NoError(t, err)
	defer s.Close()

	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := s.CreateTask(ctx, fmt.Sprint(i), nil)
		require.NoError(t, err)
	}

	tasks, err := s.ListIncomplete(ctx, 5)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, int64(3), tasks[0].ID)
	assert.Equal(t, int64(1), tasks[2].ID)
	assert.True(t, tasks[0].CreatedAt.Equal(fixed))
}

// Задачи с разницей в доли секунды должны выходить хронологически
func TestSQLiteStorageSubsecondOrder(t *testing.T) {
	s, err := NewSQLiteStorage(context.Background(), ":memory:")
	require.NoError(t, err)
	defer s.Close()

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	offsets := []time.Duration{0, 500 * time.Millisecond, 1200 * time.Millisecond, 1250 * time.Millisecond}
	ctx := context.Background()
	for _, off := range offsets {
		at := base.Add(off)
		s.now = func() time.Time { return at }
		_, err := s.CreateTask(ctx, off.String(), nil)
		require.NoError(t, err)
	}

	tasks, err := s.ListIncomplete(ctx, 5)
	require.NoError(t, err)
	require.Len(t, tasks, 4)
	for i := 1; i < len(tasks); i++ {
		assert.True(t, tasks[i-1].CreatedAt.After(tasks[i].CreatedAt), "%v должна быть новее %v", tasks[i-1].CreatedAt, tasks[i].CreatedAt)
	}
}

func TestSQLiteStorageReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")
	ctx := context.Background()

	s, err := NewSQLiteStorage(ctx, path)
	require.NoError(t, err)
	task, err := s.CreateTask(ctx, "Переживет перезапуск", nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewSQLiteStorage(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	stored, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Переживет перезапуск", stored.Title)
	assert.NoError(t, s.Ping(ctx))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Driver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStorage{}, s)

	s, err = Open(ctx, Options{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStorage{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Options{Driver: "mongo"})
	assert.Error(t, err)
}
