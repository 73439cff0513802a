package middleware

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Admin gates privileged handlers to users whose persisted record has
// is_admin set. It must run after Auth, which attaches the record.
type Admin struct {
	logger *zap.Logger
}

// NewAdmin creates the admin gate
func NewAdmin(logger *zap.Logger) *Admin {
	return &Admin{logger: logger}
}

// Process implements Middleware. Non-admins get an access-denied notice
// where the update supports a response.
func (m *Admin) Process(ctx context.Context, api *tgbotapi.BotAPI, update tgbotapi.Update) (context.Context, bool) {
	user := UserFrom(ctx)
	if user != nil && user.IsAdmin {
		return ctx, true
	}

	const denied = "❌ У вас нет прав администратора"

	switch {
	case update.Message != nil:
		msg := tgbotapi.NewMessage(update.Message.Chat.ID, denied)
		if _, err := api.Send(msg); err != nil {
			m.logger.Error("failed to send access denied notice", zap.Error(err))
		}
	case update.CallbackQuery != nil:
		callback := tgbotapi.NewCallbackWithAlert(update.CallbackQuery.ID, denied)
		if _, err := api.Request(callback); err != nil {
			m.logger.Error("failed to answer callback", zap.Error(err))
		}
	default:
		m.logger.Warn("admin gate hit by unsupported update kind")
	}

	return ctx, false
}
