package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"taskboard/internal/client"
	"taskboard/internal/config"
	"taskboard/internal/logger"
)

type Bot struct {
	api   *tgbotapi.BotAPI
	board *client.Board
}

func NewBot(token string, board *client.Board) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания бота: %w", err)
	}

	logger.Info(context.Background(), "Бот авторизован", "username", bot.Self.UserName)

	return &Bot{
		api:   bot,
		board: board,
	}, nil
}

func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates, err := b.api.GetUpdatesChan(u)
	if err != nil {
		return fmt.Errorf("ошибка получения updates: %w", err)
	}

	logger.Info(context.Background(), "Бот запущен и слушает сообщения...")

	for update := range updates {
		if update.Message == nil {
			continue
		}

		go b.handleMessage(update.Message)
	}
	return nil
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	user := ""
	if msg.From != nil {
		user = msg.From.UserName
	}
	logger.Info(ctx, "Получено сообщение", "user", user, "text", msg.Text)

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// Обычный текст превращаем в задачу
	if strings.TrimSpace(msg.Text) != "" {
		b.addTask(ctx, msg.Chat.ID, msg.Text)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		b.sendMessage(msg.Chat.ID, helpText)
	case "add":
		args := msg.CommandArguments()
		if strings.TrimSpace(args) == "" {
			b.sendMessage(msg.Chat.ID, "Укажите задачу после команды: /add Купить молоко | 2 литра")
			return
		}
		b.addTask(ctx, msg.Chat.ID, args)
	case "list":
		b.listTasks(ctx, msg.Chat.ID)
	case "done":
		b.completeTask(ctx, msg.Chat.ID, msg.CommandArguments())
	default:
		b.sendMessage(msg.Chat.ID, "Неизвестная команда. Используйте /help для списка команд.")
	}
}

func (b *Bot) addTask(ctx context.Context, chatID int64, text string) {
	title, description := parseAddArgs(text)

	task, err := b.board.Add(ctx, title, description)
	if err != nil {
		b.sendError(ctx, chatID, err)
		return
	}

	b.sendMessage(chatID, fmt.Sprintf("✅ Задача добавлена!\n\nID: #%d\nЗадача: %s", task.ID, task.Title))
}

func (b *Bot) listTasks(ctx context.Context, chatID int64) {
	if err := b.board.Refresh(ctx); err != nil {
		b.sendError(ctx, chatID, err)
		return
	}
	b.sendMessage(chatID, renderTasks(b.board.State().Tasks))
}

func (b *Bot) completeTask(ctx context.Context, chatID int64, args string) {
	if strings.TrimSpace(args) == "" {
		b.sendMessage(chatID, "Укажите номер задачи: /done 1")
		return
	}

	taskID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		b.sendMessage(chatID, "Номер задачи должен быть числом")
		return
	}

	done, err := b.board.Done(ctx, taskID)
	if err != nil {
		b.sendError(ctx, chatID, err)
		return
	}

	b.sendMessage(chatID, fmt.Sprintf("✅ Задача #%d «%s» отмечена выполненной!", done.ID, done.Title))
}

// sendError показывает ошибку пользователю; бот продолжает работу
func (b *Bot) sendError(ctx context.Context, chatID int64, err error) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		b.sendMessage(chatID, "❌ Ошибка: "+apiErr.Message)
	} else {
		logger.Error(ctx, err, "Сервис задач недоступен")
		b.sendMessage(chatID, "❌ Сервис задач недоступен, попробуйте позже")
	}
	b.board.ClearError()
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)

	if _, err := b.api.Send(msg); err != nil {
		logger.Error(context.Background(), err, "Ошибка отправки сообщения", "chat_id", chatID)
	}
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Error(ctx, err, "Ошибка загрузки конфигурации")
		os.Exit(1)
	}
	logger.SetLevel(cfg.LogLevel)
	logger.Info(ctx, "Запуск Telegram-бота...", "api", cfg.APIBaseURL)

	if cfg.TelegramToken == "" {
		logger.Error(ctx, nil, "TELEGRAM_TOKEN не задан")
		os.Exit(1)
	}

	api := client.New(cfg.APIBaseURL, nil)
	if err := api.Health(ctx); err != nil {
		logger.Warn(ctx, "Сервис задач пока недоступен", "error", err)
	}

	bot, err := NewBot(cfg.TelegramToken, client.NewBoard(api))
	if err != nil {
		logger.Error(ctx, err, "Ошибка создания бота")
		os.Exit(1)
	}

	if err := bot.Start(); err != nil {
		logger.Error(ctx, err, "Бот остановлен")
		os.Exit(1)
	}
}
