package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/artur/tube-butler/internal/database/repository"
	"github.com/artur/tube-butler/internal/service"
	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// AdminHandler is the privileged surface: stats panel, user management and
// file cleanup. Register it behind the admin filter.
type AdminHandler struct {
	service     *service.YouTubeService
	users       *repository.UserRepository
	cleanupDays int
	logger      *zap.Logger
}

func NewAdminHandler(svc *service.YouTubeService, users *repository.UserRepository, cleanupDays int, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		service:     svc,
		users:       users,
		cleanupDays: cleanupDays,
		logger:      logger,
	}
}

func (h *AdminHandler) CanHandle(update tgbotapi.Update) bool {
	if update.Message != nil && update.Message.IsCommand() {
		switch update.Message.Command() {
		case "admin", "block", "unblock":
			return true
		}
		return false
	}
	if update.CallbackQuery != nil {
		return strings.HasPrefix(update.CallbackQuery.Data, "admin:")
	}
	return false
}

func (h *AdminHandler) Handle(ctx context.Context, api *tgbotapi.BotAPI, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.handleCallback(api, update.CallbackQuery)
		return
	}

	switch update.Message.Command() {
	case "admin":
		h.sendPanel(api, update.Message.Chat.ID)
	case "block":
		h.setBlocked(api, update.Message, true)
	case "unblock":
		h.setBlocked(api, update.Message, false)
	}
}

func (h *AdminHandler) sendPanel(api *tgbotapi.BotAPI, chatID int64) {
	text, err := h.panelText()
	if err != nil {
		h.logger.Error("failed to build admin panel", zap.Error(err))
		h.send(api, chatID, "❌ Не удалось собрать статистику")
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 Пользователи", "admin:users"),
			tgbotapi.NewInlineKeyboardButtonData("📹 Популярные видео", "admin:videos"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🧹 Очистка файлов", "admin:cleanup"),
		),
	)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	if _, err := api.Send(msg); err != nil {
		h.logger.Error("failed to send admin panel", zap.Error(err))
	}
}

func (h *AdminHandler) panelText() (string, error) {
	stats, err := h.service.GetDownloadStats()
	if err != nil {
		return "", err
	}
	totalUsers, err := h.users.GetTotalUsers()
	if err != nil {
		return "", err
	}
	activeUsers, err := h.users.GetActiveUsersSince(time.Now().AddDate(0, 0, -7))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"👑 Панель администратора\n\n"+
			"👥 Всего пользователей: %d\n"+
			"🟢 Активных за неделю: %d\n"+
			"📥 Всего скачиваний: %d\n"+
			"✅ Успешных: %d\n"+
			"❌ Ошибок: %d\n"+
			"📈 Успешность: %.1f%%\n"+
			"📅 Сегодня: %d",
		totalUsers, activeUsers, stats.Total, stats.Completed,
		stats.Failed, stats.SuccessRate, stats.Today), nil
}

func (h *AdminHandler) handleCallback(api *tgbotapi.BotAPI, callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID

	if _, err := api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		h.logger.Error("failed to answer callback", zap.Error(err))
	}

	switch callback.Data {
	case "admin:users":
		h.sendUsers(api, chatID)
	case "admin:videos":
		h.sendPopular(api, chatID)
	case "admin:cleanup":
		count, err := h.service.Cleanup(h.cleanupDays)
		if err != nil {
			h.logger.Error("cleanup failed", zap.Error(err))
			h.send(api, chatID, "❌ Очистка не удалась")
			return
		}
		h.send(api, chatID, fmt.Sprintf("🧹 Удалено файлов: %d", count))
	}
}

func (h *AdminHandler) sendUsers(api *tgbotapi.BotAPI, chatID int64) {
	users, err := h.users.List(20)
	if err != nil {
		h.logger.Error("failed to list users", zap.Error(err))
		h.send(api, chatID, "❌ Не удалось получить список пользователей")
		return
	}

	var b strings.Builder
	b.WriteString("👥 Пользователи\n\n")
	for _, u := range users {
		status := "👤"
		if u.IsAdmin {
			status = "👑"
		} else if u.IsBlocked {
			status = "🚫"
		}
		fmt.Fprintf(&b, "%s %s (ID %d) — скачиваний: %d, объём: %s\n",
			status, u.FullName(), u.TelegramID, u.TotalDownloads,
			humanize.Bytes(uint64(u.TotalDownloadSize)))
	}

	h.send(api, chatID, b.String())
}

func (h *AdminHandler) sendPopular(api *tgbotapi.BotAPI, chatID int64) {
	stats, err := h.service.GetDownloadStats()
	if err != nil {
		h.logger.Error("failed to get stats", zap.Error(err))
		h.send(api, chatID, "❌ Не удалось получить статистику")
		return
	}

	if len(stats.Popular) == 0 {
		h.send(api, chatID, "Пока нет скачанных видео")
		return
	}

	var b strings.Builder
	b.WriteString("📹 Популярные видео\n\n")
	for i, v := range stats.Popular {
		fmt.Fprintf(&b, "%d. %s — %d скачиваний\n", i+1, v.Title, v.DownloadCount)
	}

	h.send(api, chatID, b.String())
}

func (h *AdminHandler) setBlocked(api *tgbotapi.BotAPI, message *tgbotapi.Message, blocked bool) {
	arg := strings.TrimSpace(message.CommandArguments())
	telegramID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		h.send(api, message.Chat.ID, "Использование: /"+message.Command()+" <telegram_id>")
		return
	}

	ok, err := h.users.SetBlocked(telegramID, blocked)
	if err != nil {
		h.logger.Error("failed to set blocked", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.send(api, message.Chat.ID, "❌ Операция не удалась")
		return
	}
	if !ok {
		h.send(api, message.Chat.ID, "Пользователь не найден")
		return
	}

	if blocked {
		h.send(api, message.Chat.ID, fmt.Sprintf("🚫 Пользователь %d заблокирован", telegramID))
	} else {
		h.send(api, message.Chat.ID, fmt.Sprintf("✅ Пользователь %d разблокирован", telegramID))
	}
}

func (h *AdminHandler) send(api *tgbotapi.BotAPI, chatID int64, text string) {
	if _, err := api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.logger.Error("failed to send message", zap.Error(err))
	}
}
