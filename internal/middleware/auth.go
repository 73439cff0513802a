package middleware

import (
	"context"

	"github.com/artur/tube-butler/internal/database/repository"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Auth resolves the sender to a persisted user record and drops blocked
// users before they reach any handler.
type Auth struct {
	users  *repository.UserRepository
	admins map[int64]struct{}
	logger *zap.Logger
}

// NewAuth creates the authentication filter. adminIDs mark users that get
// is_admin on first contact.
func NewAuth(users *repository.UserRepository, adminIDs []int64, logger *zap.Logger) *Auth {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Auth{users: users, admins: admins, logger: logger}
}

// Process implements Middleware. Updates without a sender pass through
// unchanged. Blocked users are dropped silently, by policy distinct from
// the rate limiter's visible notice.
func (a *Auth) Process(ctx context.Context, api *tgbotapi.BotAPI, update tgbotapi.Update) (context.Context, bool) {
	sender := senderFrom(update)
	if sender == nil {
		return ctx, true
	}

	blocked, err := a.users.IsBlocked(sender.ID)
	if err != nil {
		a.logger.Error("failed to check block status", zap.Int64("telegram_id", sender.ID), zap.Error(err))
		return ctx, false
	}
	if blocked {
		a.logger.Warn("blocked user dropped", zap.Int64("telegram_id", sender.ID))
		return ctx, false
	}

	_, isAdmin := a.admins[sender.ID]
	user, err := a.users.GetOrCreate(sender, isAdmin)
	if err != nil {
		a.logger.Error("failed to resolve user", zap.Int64("telegram_id", sender.ID), zap.Error(err))
		return ctx, false
	}

	return WithUser(ctx, user), true
}
