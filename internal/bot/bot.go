package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/FACorreiaa/go-nearby-guide/internal/types"
)

const helpText = `Share your location and I'll tell you about the closest interesting place.

Use the attachment menu to send a one-off location, or share a live location
and I'll keep narrating as you walk. I pause for a minute between stories and
won't repeat a place within an hour.`

// Bot owns the long-poll loop and hands each update to the pipeline handler.
type Bot struct {
	logger      *slog.Logger
	api         *TelegramAPI
	handler     *Handler
	pollTimeout time.Duration
}

func New(api *TelegramAPI, handler *Handler, pollTimeout time.Duration, logger *slog.Logger) *Bot {
	return &Bot{
		logger:      logger,
		api:         api,
		handler:     handler,
		pollTimeout: pollTimeout,
	}
}

// Run polls for updates until the context is cancelled. Poll errors are
// logged and retried after a short pause; they never stop the loop.
func (b *Bot) Run(ctx context.Context) error {
	me, err := b.api.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to authorize bot: %w", err)
	}
	b.logger.Info("bot authorized", slog.String("username", me.Username))

	var offset int64
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("update loop stopping")
			return nil
		default:
		}

		updates, next, err := b.api.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			b.logger.Warn("getUpdates failed, retrying", slog.Any("error", err))
			time.Sleep(3 * time.Second)
			continue
		}
		offset = next

		for _, update := range updates {
			// Each event runs independently; per-user ordering is only
			// approximated by the cooldown gate.
			go b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update Update) {
	msg := update.Message
	live := false
	if msg == nil && update.EditedMessage != nil {
		msg = update.EditedMessage
		live = true
	}
	if msg == nil || msg.Chat == nil {
		return
	}

	if msg.Location != nil {
		userID := msg.Chat.ID
		if msg.From != nil {
			userID = msg.From.ID
		}
		b.handler.HandleLocation(ctx, types.LocationEvent{
			UserID: userID,
			ChatID: msg.Chat.ID,
			Location: types.Coordinate{
				Latitude:  msg.Location.Latitude,
				Longitude: msg.Location.Longitude,
			},
			Live: live,
		})
		return
	}

	if live {
		return
	}
	switch cmd := strings.TrimSpace(msg.Text); {
	case cmd == "/start", cmd == "/help":
		if err := b.api.SendMessage(ctx, msg.Chat.ID, helpText); err != nil {
			b.logger.Error("failed to send help", slog.Int64("chat_id", msg.Chat.ID), slog.Any("error", err))
		}
	}
}
