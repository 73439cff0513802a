// Package middleware implements the request admission pipeline: every
// update passes authentication and rate limiting before reaching a handler,
// and privileged handlers additionally pass the admin gate.
package middleware

import (
	"context"

	"github.com/artur/tube-butler/internal/database/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Middleware filters one update. It returns the (possibly enriched) context
// and whether processing should continue. A false return means the pipeline
// stops; the middleware itself decides whether the user gets a notice.
type Middleware interface {
	Process(ctx context.Context, api *tgbotapi.BotAPI, update tgbotapi.Update) (context.Context, bool)
}

type userKey struct{}

// WithUser attaches the resolved user record to the request context
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFrom returns the user record attached by the auth middleware, nil if
// the update had no resolvable sender
func UserFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey{}).(*models.User)
	return user
}

// senderFrom extracts the sending user from any supported update kind
func senderFrom(update tgbotapi.Update) *tgbotapi.User {
	switch {
	case update.Message != nil:
		return update.Message.From
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From
	case update.InlineQuery != nil:
		return update.InlineQuery.From
	}
	return nil
}
