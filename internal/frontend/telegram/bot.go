package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/CineShelf/internal/config"
	"github.com/vadimtrunov/CineShelf/internal/core"
	"github.com/vadimtrunov/CineShelf/internal/details"
)

// Deps holds the services the bot talks to.
type Deps struct {
	Movies         core.MovieRepository
	Watchlist      core.WatchlistStore
	Details        details.Config
	MinQueryLength int
}

// sender is the part of the Bot API used to deliver messages.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot is the Telegram frontend for CineShelf.
type Bot struct {
	api      *tgbotapi.BotAPI
	out      sender
	deps     Deps
	sessions *sessionManager
	logger   *slog.Logger
}

// New creates a new Telegram Bot.
func New(token string, allowedUserIDs []int64, deps Deps, logger *slog.Logger) (*Bot, error) {
	if deps.Movies == nil || deps.Watchlist == nil {
		return nil, errors.New("telegram bot requires a movie repository and a watchlist store")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	b := newBot(api, allowedUserIDs, deps, logger)
	b.api = api
	return b, nil
}

func newBot(out sender, allowedUserIDs []int64, deps Deps, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.MinQueryLength <= 0 {
		deps.MinQueryLength = config.DefaultMinQueryLength
	}
	return &Bot{
		out:      out,
		deps:     deps,
		sessions: newSessionManager(allowedUserIDs),
		logger:   logger,
	}
}

// Name returns the frontend name.
func (b *Bot) Name() string { return "telegram" }

// Start starts the long-polling loop. It blocks until ctx is canceled.
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return errors.New("telegram bot is not connected")
	}
	b.logger.Info("telegram bot started",
		slog.String("username", b.api.Self.UserName),
	)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("telegram bot stopped")
			return nil

		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate dispatches an incoming Telegram update.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		ctx = config.ContextWithLogger(ctx, b.logger.With(slog.Int64("user_id", update.CallbackQuery.From.ID)))
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		ctx = config.ContextWithLogger(ctx, b.logger.With(slog.Int64("user_id", update.Message.From.ID)))
		b.handleMessage(ctx, update.Message)
	}
}

// sendText sends a plain text message (no parse mode).
func (b *Bot) sendText(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.out.Send(msg); err != nil {
		config.LoggerFromContext(ctx).Error("failed to send message",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}

// sendMarkdown sends MarkdownV2 text with an optional keyboard, retrying as
// plain text when Telegram rejects the markup.
func (b *Bot) sendMarkdown(ctx context.Context, chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	_, err := b.out.Send(msg)
	if err == nil {
		return
	}
	config.LoggerFromContext(ctx).Warn("failed to send markdown, retrying plain",
		slog.String("error", err.Error()),
	)

	msg.ParseMode = ""
	if _, err := b.out.Send(msg); err != nil {
		config.LoggerFromContext(ctx).Error("failed to send message",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}

// ack answers a callback query; text is shown as a toast when non-empty.
func (b *Bot) ack(ctx context.Context, queryID, text string) {
	if _, err := b.out.Request(tgbotapi.NewCallback(queryID, text)); err != nil {
		config.LoggerFromContext(ctx).Debug("callback ack failed", slog.String("error", err.Error()))
	}
}

// typing shows the typing indicator. Best effort.
func (b *Bot) typing(chatID int64) {
	b.out.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)) //nolint:errcheck // best-effort typing indicator
}

// userMessage renders err for the chat.
func userMessage(err error) string {
	if errors.Is(err, context.Canceled) {
		return "Request canceled."
	}
	return strings.TrimSpace(core.DisplayMessage(err))
}
