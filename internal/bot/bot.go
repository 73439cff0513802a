package bot

import (
	"context"
	"fmt"

	"github.com/artur/tube-butler/internal/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Handler processes one kind of update. The context carries the user
// record attached by the auth filter.
type Handler interface {
	CanHandle(update tgbotapi.Update) bool
	Handle(ctx context.Context, api *tgbotapi.BotAPI, update tgbotapi.Update)
}

type registration struct {
	handler Handler
	filters []middleware.Middleware
}

type Bot struct {
	api      *tgbotapi.BotAPI
	global   []middleware.Middleware
	handlers []registration
	logger   *zap.Logger
}

func New(token string, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	logger.Info("authorized", zap.String("account", api.Self.UserName))

	return &Bot{
		api:    api,
		logger: logger,
	}, nil
}

// Use appends a filter every update passes before handler dispatch.
// Filters run in registration order.
func (b *Bot) Use(m middleware.Middleware) {
	b.global = append(b.global, m)
}

// RegisterHandler adds a handler, optionally behind extra filters that run
// only when this handler is selected (e.g. the admin gate).
func (b *Bot) RegisterHandler(h Handler, filters ...middleware.Middleware) {
	b.handlers = append(b.handlers, registration{handler: h, filters: filters})
	b.logger.Info("registered handler", zap.String("handler", fmt.Sprintf("%T", h)))
}

func (b *Bot) Run() {
	b.logger.Info("starting bot", zap.Int("handlers", len(b.handlers)))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil && update.CallbackQuery == nil {
			continue
		}
		go b.handleUpdate(context.Background(), update)
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var ok bool
	for _, m := range b.global {
		if ctx, ok = m.Process(ctx, b.api, update); !ok {
			return
		}
	}

	for _, reg := range b.handlers {
		if !reg.handler.CanHandle(update) {
			continue
		}
		for _, m := range reg.filters {
			if ctx, ok = m.Process(ctx, b.api, update); !ok {
				return
			}
		}
		reg.handler.Handle(ctx, b.api, update)
		return
	}

	b.logger.Debug("no handler found for update")
}
