package models

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

var csvHeader = []string{"id", "title", "description", "completed", "created_at", "completed_at"}

// WriteJSON пишет список задач в w как JSON-массив
func WriteJSON(w io.Writer, tasks []Task) error {
	if tasks == nil {
		tasks = []Task{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tasks)
}

// WriteCSV пишет список задач в w с заголовком
func WriteCSV(w io.Writer, tasks []Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, task := range tasks {
		completedAt := ""
		if task.CompletedAt != nil {
			completedAt = task.CompletedAt.UTC().Format(time.RFC3339Nano)
		}
		record := []string{
			strconv.FormatInt(task.ID, 10),
			task.Title,
			task.DescriptionText(),
			strconv.FormatBool(task.Completed),
			task.CreatedAt.UTC().Format(time.RFC3339Nano),
			completedAt,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveJSON сохраняет задачи в файл
func SaveJSON(filename string, tasks []Task) error {
	return saveFile(filename, tasks, WriteJSON)
}

// SaveCSV сохраняет задачи в файл
func SaveCSV(filename string, tasks []Task) error {
	return saveFile(filename, tasks, WriteCSV)
}

func saveFile(filename string, tasks []Task, write func(io.Writer, []Task) error) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("ошибка создания файла %s: %w", filename, err)
	}

	if err := write(f, tasks); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
