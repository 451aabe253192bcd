package main

import (
	"fmt"
	"strings"

	"taskboard/internal/models"
)

const helpText = `🎯 TodoBot

Команды:
/add [задача] | [описание] - Добавить задачу
/list - Пять последних открытых задач
/done [номер] - Отметить задачу выполненной
/help - Помощь

Любой текст без команды тоже становится задачей.

Примеры:
/add Купить молоко | 2 литра
/done 1`

// parseAddArgs делит "заголовок | описание" по первой вертикальной черте
func parseAddArgs(text string) (title, description string) {
	title, description, _ = strings.Cut(text, "|")
	return strings.TrimSpace(title), strings.TrimSpace(description)
}

func renderTasks(tasks []models.Task) string {
	if len(tasks) == 0 {
		return "📭 Открытых задач нет"
	}

	var response strings.Builder
	response.WriteString("📋 Ваши задачи:\n\n")

	for _, task := range tasks {
		response.WriteString(fmt.Sprintf("🟢 #%d: %s", task.ID, task.Title))
		if task.Description != nil {
			response.WriteString("\n    " + *task.Description)
		}
		response.WriteString("\n\n")
	}

	return strings.TrimRight(response.String(), "\n")
}
