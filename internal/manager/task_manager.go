package manager

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"taskboard/internal/logger"
	"taskboard/internal/models"
	"taskboard/internal/storage"
)

// RecentLimit - сколько незакрытых задач видно в списке
const RecentLimit = 5

var (
	createTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoapp_tasks_created_total",
			Help: "Total number of Create operations",
		},
		[]string{"status"},
	)

	markDoneCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoapp_tasks_completed_total",
			Help: "Total number of MarkDone operations",
		},
		[]string{"status"},
	)

	taskTitleLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "todoapp_task_title_length_bytes",
			Help:    "Length distribution of task titles",
			Buckets: []float64{10, 25, 50, 100, 250},
		},
	)

	createTaskDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "todoapp_create_task_duration_seconds",
			Help:    "Duration of Create operation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	markDoneDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "todoapp_mark_done_duration_seconds",
			Help:    "Duration of MarkDone operation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	listTasksDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "todoapp_list_tasks_duration_seconds",
			Help:    "Duration of ListRecent operation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// TaskManager - операции над задачами поверх Storage. Собственного
// изменяемого состояния нет, вся синхронизация на стороне хранилища.
type TaskManager struct {
	storage storage.Storage
}

func NewTaskManager(s storage.Storage) *TaskManager {
	return &TaskManager{storage: s}
}

// Create проверяет заголовок, нормализует описание и вставляет задачу
func (tm *TaskManager) Create(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error) {
	startTime := time.Now()
	defer func() {
		createTaskDuration.Observe(time.Since(startTime).Seconds())
	}()

	title := ""
	if req.Title != nil {
		title = strings.TrimSpace(*req.Title)
	}
	if title == "" {
		createTaskCount.WithLabelValues("invalid").Inc()
		return nil, errTitleRequired
	}

	task, err := tm.storage.CreateTask(ctx, title, normalizeDescription(req.Description))
	if err != nil {
		createTaskCount.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	createTaskCount.WithLabelValues("success").Inc()
	taskTitleLength.Observe(float64(len(title)))
	logger.Debug(ctx, "Задача создана", "id", task.ID)

	return task, nil
}

// ListRecent возвращает до RecentLimit незакрытых задач, новые первыми
func (tm *TaskManager) ListRecent(ctx context.Context) ([]models.Task, error) {
	startTime := time.Now()
	defer func() {
		listTasksDuration.Observe(time.Since(startTime).Seconds())
	}()

	tasks, err := tm.storage.ListIncomplete(ctx, RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("список задач: %w", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// MarkDone закрывает задачу по id из запроса. Несуществующая и уже закрытая
// задача неразличимы для вызывающего: обе дают ErrNotFound.
func (tm *TaskManager) MarkDone(ctx context.Context, rawID string) (*models.DoneTask, error) {
	startTime := time.Now()
	defer func() {
		markDoneDuration.Observe(time.Since(startTime).Seconds())
	}()

	id, err := ParseID(rawID)
	if err != nil {
		markDoneCount.WithLabelValues("invalid").Inc()
		return nil, err
	}

	done, err := tm.storage.CompleteTask(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			markDoneCount.WithLabelValues("not_found").Inc()
			return nil, errTaskNotFound
		}
		markDoneCount.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("закрытие задачи %d: %w", id, err)
	}

	markDoneCount.WithLabelValues("success").Inc()
	logger.Debug(ctx, "Задача закрыта", "id", done.ID)

	return done, nil
}

// ParseID строго разбирает десятичный идентификатор задачи
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, errInvalidID
	}
	return id, nil
}

// normalizeDescription: отсутствующее и пустое после trim описание - это "нет значения"
func normalizeDescription(desc *string) *string {
	if desc == nil || strings.TrimSpace(*desc) == "" {
		return nil
	}
	v := *desc
	return &v
}
