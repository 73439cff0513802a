package middleware

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const rateLimitWindow = 60 * time.Second

// RateLimiter admits at most limit requests per user within a rolling
// 60-second window. Administrators bypass it entirely. State lives in
// process memory only; a restart resets all counters.
type RateLimiter struct {
	mu          sync.Mutex
	limit       int
	admins      map[int64]struct{}
	requests    map[int64][]time.Time
	lastCleanup time.Time
	now         func() time.Time
	logger      *zap.Logger
}

// NewRateLimiter creates a rate limiter admitting limit requests per minute.
// adminIDs are exempt from the limit.
func NewRateLimiter(limit int, adminIDs []int64, logger *zap.Logger) *RateLimiter {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &RateLimiter{
		limit:       limit,
		admins:      admins,
		requests:    make(map[int64][]time.Time),
		lastCleanup: time.Now(),
		now:         time.Now,
		logger:      logger,
	}
}

// Process implements Middleware. Updates without a sender pass through.
// Rejected users get a short notice where the update supports one.
func (rl *RateLimiter) Process(ctx context.Context, api *tgbotapi.BotAPI, update tgbotapi.Update) (context.Context, bool) {
	sender := senderFrom(update)
	if sender == nil {
		return ctx, true
	}

	if rl.Admit(sender.ID) {
		return ctx, true
	}

	rl.logger.Warn("rate limit exceeded", zap.Int64("telegram_id", sender.ID))

	if update.Message != nil {
		msg := tgbotapi.NewMessage(update.Message.Chat.ID, "⚠️ Вы превысили лимит запросов. Попробуйте позже.")
		if _, err := api.Send(msg); err != nil {
			rl.logger.Error("failed to send rate limit notice", zap.Error(err))
		}
	}

	return ctx, false
}

// Admit records and admits the request if the user has fewer than limit
// requests in the trailing window; otherwise rejects without mutating state.
func (rl *RateLimiter) Admit(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if _, ok := rl.admins[userID]; ok {
		return true
	}

	now := rl.now()

	// Lazy whole-table prune once per window
	if now.Sub(rl.lastCleanup) > rateLimitWindow {
		rl.cleanup(now)
		rl.lastCleanup = now
	}

	windowStart := now.Add(-rateLimitWindow)
	recent := pruneTimestamps(rl.requests[userID], windowStart)

	if len(recent) >= rl.limit {
		rl.requests[userID] = recent
		return false
	}

	rl.requests[userID] = append(recent, now)
	return true
}

// cleanup prunes every user's sequence and drops users left empty, bounding
// memory to active users. Caller holds the mutex.
func (rl *RateLimiter) cleanup(now time.Time) {
	windowStart := now.Add(-rateLimitWindow)
	for userID, times := range rl.requests {
		recent := pruneTimestamps(times, windowStart)
		if len(recent) == 0 {
			delete(rl.requests, userID)
		} else {
			rl.requests[userID] = recent
		}
	}
}

// pruneTimestamps keeps entries strictly newer than windowStart, preserving order
func pruneTimestamps(times []time.Time, windowStart time.Time) []time.Time {
	var recent []time.Time
	for _, ts := range times {
		if ts.After(windowStart) {
			recent = append(recent, ts)
		}
	}
	return recent
}
