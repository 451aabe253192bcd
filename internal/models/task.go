package models

import "time"

// Task - единственная сущность приложения
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// CreateTaskRequest - тело запроса POST /api/tasks
type CreateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description,omitempty"`
}

// DoneTask - минимальная идентичность задачи, закрытой через mark-done
type DoneTask struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// DoneResponse - ответ POST /api/tasks/{id}/done
type DoneResponse struct {
	Success bool     `json:"success"`
	Task    DoneTask `json:"task"`
}

// ErrorResponse - тело любого неуспешного ответа
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse - ответ GET /health
type HealthResponse struct {
	OK bool `json:"ok"`
}

// DescriptionText возвращает описание или пустую строку
func (t Task) DescriptionText() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}

// StringPtr - удобный конструктор опциональных строк
func StringPtr(s string) *string {
	return &s
}
