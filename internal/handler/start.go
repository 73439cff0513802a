package handler

import (
	"context"
	"fmt"

	"github.com/artur/tube-butler/internal/middleware"
	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type StartHandler struct {
	logger *zap.Logger
}

func NewStartHandler(logger *zap.Logger) *StartHandler {
	return &StartHandler{logger: logger}
}

func (h *StartHandler) CanHandle(update tgbotapi.Update) bool {
	if update.Message == nil || !update.Message.IsCommand() {
		return false
	}
	switch update.Message.Command() {
	case "start", "help", "stats":
		return true
	}
	return false
}

func (h *StartHandler) Handle(ctx context.Context, api *tgbotapi.BotAPI, update tgbotapi.Update) {
	chatID := update.Message.Chat.ID

	var text string
	switch update.Message.Command() {
	case "start":
		userName := getUserName(update.Message.From.FirstName, update.Message.From.UserName)
		text = formatGreeting(userName)
	case "help":
		text = helpText
	case "stats":
		user := middleware.UserFrom(ctx)
		if user == nil {
			return
		}
		text = fmt.Sprintf(
			"📊 Ваша статистика\n\n"+
				"📥 Скачиваний: %d\n"+
				"💾 Общий объём: %s\n"+
				"📅 С нами с: %s",
			user.TotalDownloads,
			humanize.Bytes(uint64(user.TotalDownloadSize)),
			user.CreatedAt.Format("02.01.2006"),
		)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := api.Send(msg); err != nil {
		h.logger.Error("failed to send message", zap.Error(err))
	}
}

const helpText = "Пришлите ссылку на YouTube видео, и я скачаю его для вас.\n\n" +
	"Поддерживаемые форматы ссылок:\n" +
	"• https://youtube.com/watch?v=VIDEO_ID\n" +
	"• https://youtu.be/VIDEO_ID\n\n" +
	"Команды:\n" +
	"/start — приветствие\n" +
	"/help — эта справка\n" +
	"/stats — ваша статистика"

func getUserName(firstName, userName string) string {
	if firstName != "" {
		return firstName
	}
	return userName
}

func formatGreeting(userName string) string {
	return "Привет, " + userName + "! Рад тебя видеть! 👋\n\nПришли ссылку на YouTube видео — я скачаю его для тебя. /help"
}
