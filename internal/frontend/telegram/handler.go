package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/CineShelf/internal/browse"
	"github.com/vadimtrunov/CineShelf/internal/config"
	"github.com/vadimtrunov/CineShelf/internal/core"
	"github.com/vadimtrunov/CineShelf/internal/details"
)

const (
	unauthorizedMsg = "Sorry, you are not authorized to use this bot."
	resetMsg        = "Session reset. Send /popular or a title to start over."
	emptyListMsg    = "Your watchlist is empty."
	noMoreMsg       = "No more movies."
	helpMsg         = "Welcome to CineShelf!\n\n" +
		"/popular - popular movies\n" +
		"/search <title> - search by title (or just send a title)\n" +
		"/watchlist - movies you saved\n" +
		"/details <id> - full details of a movie\n" +
		"/reset - start over"

	cbMore   = "more"
	cbToggle = "tog:"
	cbInfo   = "info:"

	maxButtonLabel = 30 // max characters in inline keyboard button label
)

// handleMessage processes an incoming text message.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	logger := config.LoggerFromContext(ctx)

	logger.Debug("received message", slog.Int64("user_id", userID))

	if !b.sessions.isAllowed(userID) {
		b.sendText(ctx, chatID, unauthorizedMsg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	cmd, args := parseCommand(text)
	switch cmd {
	case "/start", "/help":
		b.sendText(ctx, chatID, helpMsg)
	case "/reset":
		b.sessions.reset(userID)
		b.sendText(ctx, chatID, resetMsg)
	case "/popular":
		b.startList(ctx, chatID, userID, browse.ModePopular, "")
	case "/search":
		if args == "" {
			b.sendText(ctx, chatID, "Usage: /search <title>")
			return
		}
		b.startList(ctx, chatID, userID, browse.ModeSearch, args)
	case "/watchlist":
		b.showWatchlist(ctx, chatID, userID)
	case "/details":
		id, err := strconv.Atoi(args)
		if err != nil || id <= 0 {
			b.sendText(ctx, chatID, "Usage: /details <movie id>")
			return
		}
		b.showDetails(ctx, chatID, userID, id)
	case "":
		b.startList(ctx, chatID, userID, browse.ModeSearch, text)
	default:
		b.sendText(ctx, chatID, "Unknown command. Send /help for the list of commands.")
	}
}

// handleCallback processes inline keyboard callback queries.
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		b.ack(ctx, cq.ID, "")
		return
	}
	userID := cq.From.ID
	chatID := cq.Message.Chat.ID

	config.LoggerFromContext(ctx).Debug("received callback",
		slog.Int64("user_id", userID),
		slog.String("data", cq.Data),
	)

	if !b.sessions.isAllowed(userID) {
		b.ack(ctx, cq.ID, "")
		return
	}

	switch {
	case cq.Data == cbMore:
		b.ack(ctx, cq.ID, "")
		b.nextPage(ctx, chatID, userID)
	case strings.HasPrefix(cq.Data, cbToggle):
		id, err := strconv.Atoi(strings.TrimPrefix(cq.Data, cbToggle))
		if err != nil {
			b.ack(ctx, cq.ID, "")
			return
		}
		b.toggle(ctx, cq, id)
	case strings.HasPrefix(cq.Data, cbInfo):
		b.ack(ctx, cq.ID, "")
		id, err := strconv.Atoi(strings.TrimPrefix(cq.Data, cbInfo))
		if err != nil {
			return
		}
		b.showDetails(ctx, chatID, userID, id)
	default:
		b.ack(ctx, cq.ID, "")
	}
}

// startList switches the user's session to mode and sends page 1.
func (b *Bot) startList(ctx context.Context, chatID, userID int64, mode browse.Mode, query string) {
	if mode == browse.ModeSearch && utf8.RuneCountInString(query) < b.deps.MinQueryLength {
		b.sendText(ctx, chatID, fmt.Sprintf("Type at least %d characters to search.", b.deps.MinQueryLength))
		return
	}
	sess := b.sessions.getOrCreate(userID)
	b.sendPage(ctx, chatID, sess, sess.begin(mode, query))
}

// nextPage sends the page after the last one the user saw.
func (b *Bot) nextPage(ctx context.Context, chatID, userID int64) {
	sess := b.sessions.getOrCreate(userID)
	c, ok := sess.next()
	if !ok {
		b.sendText(ctx, chatID, noMoreMsg)
		return
	}
	b.sendPage(ctx, chatID, sess, c)
}

func (b *Bot) sendPage(ctx context.Context, chatID int64, sess *session, c cursor) {
	b.typing(chatID)

	var (
		page *core.MoviePage
		err  error
	)
	if c.mode == browse.ModeSearch {
		page, err = b.deps.Movies.Search(ctx, c.query, c.page)
	} else {
		page, err = b.deps.Movies.GetPopular(ctx, c.page)
	}
	if err != nil {
		sess.abort(c)
		config.LoggerFromContext(ctx).Error("fetch page failed",
			slog.String("mode", c.mode.String()),
			slog.Int("page", c.page),
			slog.String("error", err.Error()),
		)
		b.sendText(ctx, chatID, userMessage(err))
		return
	}
	if !sess.record(c, page) {
		return
	}

	movies := page.Results
	ids := b.watchlistIDs(ctx)
	for i := range movies {
		movies[i].IsOnWatchlist = ids.Has(movies[i].ID)
	}
	sections := core.GroupByYear(movies)

	kb := movieKeyboard(sections, page.HasMore())
	b.sendMarkdown(ctx, chatID, FormatSections(sections), kb)
}

// watchlistIDs returns the stored ids, or an empty set when the store fails.
func (b *Bot) watchlistIDs(ctx context.Context) core.IDSet {
	ids, err := b.deps.Watchlist.ListAll(ctx)
	if err != nil {
		config.LoggerFromContext(ctx).Warn("watchlist lookup failed", slog.String("error", err.Error()))
		return core.IDSet{}
	}
	return ids
}

// toggle flips watchlist membership and updates the star on the pressed button.
func (b *Bot) toggle(ctx context.Context, cq *tgbotapi.CallbackQuery, id int) {
	logger := config.LoggerFromContext(ctx)

	on, err := b.deps.Watchlist.Contains(ctx, id)
	if err == nil {
		on = !on
		if on {
			err = b.deps.Watchlist.Add(ctx, id)
		} else {
			err = b.deps.Watchlist.Remove(ctx, id)
		}
	}
	if err != nil {
		logger.Error("toggle watchlist failed", slog.Int("movie_id", id), slog.String("error", err.Error()))
		b.ack(ctx, cq.ID, userMessage(err))
		return
	}

	if on {
		b.ack(ctx, cq.ID, "Added to watchlist")
	} else {
		b.ack(ctx, cq.ID, "Removed from watchlist")
	}

	kb := cq.Message.ReplyMarkup
	if kb == nil || !restar(kb, id, on) {
		return
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(cq.Message.Chat.ID, cq.Message.MessageID, *kb)
	if _, err := b.out.Request(edit); err != nil && !strings.Contains(err.Error(), "message is not modified") {
		logger.Warn("failed to update keyboard", slog.String("error", err.Error()))
	}
}

// showWatchlist lists the saved ids with the titles the session already knows.
func (b *Bot) showWatchlist(ctx context.Context, chatID, userID int64) {
	ids, err := b.deps.Watchlist.ListAll(ctx)
	if err != nil {
		config.LoggerFromContext(ctx).Error("list watchlist failed", slog.String("error", err.Error()))
		b.sendText(ctx, chatID, userMessage(err))
		return
	}
	if len(ids) == 0 {
		b.sendText(ctx, chatID, emptyListMsg)
		return
	}

	sess := b.sessions.getOrCreate(userID)
	var (
		sb   strings.Builder
		rows [][]tgbotapi.InlineKeyboardButton
	)
	sb.WriteString(FormatBold("Watchlist") + "\n")
	for _, id := range ids.Sorted() {
		title, ok := sess.title(id)
		if !ok {
			title = fmt.Sprintf("Movie #%d", id)
		}
		sb.WriteString(EscapeMdV2(fmt.Sprintf("%s %s", starOn, title)) + "\n")
		rows = append(rows, movieRow(id, title, true))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.sendMarkdown(ctx, chatID, sb.String(), &kb)
}

// showDetails runs the details pipeline for id and sends the result.
func (b *Bot) showDetails(ctx context.Context, chatID, userID int64, id int) {
	b.typing(chatID)

	agg := details.New(b.deps.Movies, b.deps.Watchlist, b.deps.Details, config.LoggerFromContext(ctx))
	defer agg.Close()

	if err := agg.Load(ctx, id); err != nil {
		b.sendText(ctx, chatID, userMessage(err))
		return
	}
	if err := agg.CheckWatchlist(ctx); err != nil {
		config.LoggerFromContext(ctx).Warn("watchlist check failed", slog.String("error", err.Error()))
	}

	res := agg.Snapshot()
	if res.Details != nil {
		b.sessions.getOrCreate(userID).remember(id, res.Details.Title)
	}
	title := fmt.Sprintf("Movie #%d", id)
	if res.Details != nil {
		title = res.Details.Title
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(toggleButton(id, title, res.InWatchlist)),
	)
	b.sendMarkdown(ctx, chatID, FormatDetails(res), &kb)
}

// movieKeyboard builds one row per movie in section order plus a More row.
func movieKeyboard(sections []core.MovieSection, hasMore bool) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, sec := range sections {
		for _, m := range sec.Movies {
			rows = append(rows, movieRow(m.ID, m.Title, m.IsOnWatchlist))
		}
	}
	if hasMore {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("More", cbMore),
		))
	}
	if len(rows) == 0 {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func movieRow(id int, title string, on bool) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		toggleButton(id, title, on),
		tgbotapi.NewInlineKeyboardButtonData("ℹ", cbInfo+strconv.Itoa(id)),
	)
}

func toggleButton(id int, title string, on bool) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(
		star(on)+" "+truncateLabel(title),
		cbToggle+strconv.Itoa(id),
	)
}

// restar rewrites the star of every toggle button for id. It reports whether
// any button changed.
func restar(kb *tgbotapi.InlineKeyboardMarkup, id int, on bool) bool {
	data := cbToggle + strconv.Itoa(id)
	changed := false
	for _, row := range kb.InlineKeyboard {
		for i := range row {
			btn := &row[i]
			if btn.CallbackData == nil || *btn.CallbackData != data {
				continue
			}
			_, label, _ := strings.Cut(btn.Text, " ")
			text := star(on) + " " + label
			if text != btn.Text {
				btn.Text = text
				changed = true
			}
		}
	}
	return changed
}

// parseCommand splits "/cmd@bot args" into "/cmd" and "args". Plain text
// yields an empty command.
func parseCommand(text string) (cmd, args string) {
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	cmd, args, _ = strings.Cut(text, " ")
	if at := strings.IndexByte(cmd, '@'); at > 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd), strings.TrimSpace(args)
}
