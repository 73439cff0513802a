package middleware

import (
	"context"
	"testing"

	"github.com/artur/tube-butler/internal/database/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func TestAdmin_PassesAdminUser(t *testing.T) {
	gate := NewAdmin(zap.NewNop())

	ctx := WithUser(context.Background(), &models.User{TelegramID: 1, IsAdmin: true})
	if _, ok := gate.Process(ctx, nil, tgbotapi.Update{}); !ok {
		t.Error("Admin user should pass the gate")
	}
}

func TestAdmin_RejectsRegularUser(t *testing.T) {
	gate := NewAdmin(zap.NewNop())

	ctx := WithUser(context.Background(), &models.User{TelegramID: 1})
	if _, ok := gate.Process(ctx, nil, tgbotapi.Update{}); ok {
		t.Error("Regular user should be rejected")
	}
}

func TestAdmin_RejectsMissingUser(t *testing.T) {
	gate := NewAdmin(zap.NewNop())

	if _, ok := gate.Process(context.Background(), nil, tgbotapi.Update{}); ok {
		t.Error("Update without an attached user should be rejected")
	}
}

func TestSenderFrom(t *testing.T) {
	sender := &tgbotapi.User{ID: 9}

	tests := []struct {
		name   string
		update tgbotapi.Update
		want   bool
	}{
		{"message", tgbotapi.Update{Message: &tgbotapi.Message{From: sender}}, true},
		{"callback", tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{From: sender}}, true},
		{"inline query", tgbotapi.Update{InlineQuery: &tgbotapi.InlineQuery{From: sender}}, true},
		{"empty", tgbotapi.Update{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := senderFrom(tt.update)
			if (got != nil) != tt.want {
				t.Errorf("senderFrom() = %v, want sender present: %v", got, tt.want)
			}
			if got != nil && got.ID != 9 {
				t.Errorf("Wrong sender returned: %+v", got)
			}
		})
	}
}
