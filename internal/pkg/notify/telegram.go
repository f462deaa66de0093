// Package notify reports finished season runs to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vodeneev/overunder/internal/pkg/runstats"
)

// Notifier receives the summary of every finished run.
type Notifier interface {
	Notify(ctx context.Context, s runstats.Summary) error
}

// Nop drops every summary.
type Nop struct{}

func (Nop) Notify(context.Context, runstats.Summary) error { return nil }

// sender is the part of tgbotapi.BotAPI the notifier uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts an HTML run summary to one chat.
type Telegram struct {
	bot    sender
	chatID int64
}

// NewTelegram connects the bot and checks the token with getMe.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	bot.Debug = false

	slog.Info("Telegram notifier initialized", "bot", bot.Self.UserName, "chat_id", chatID)
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) Notify(ctx context.Context, s runstats.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, FormatSummary(s))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram summary: %w", err)
	}
	return nil
}

// FormatSummary renders a run as a short HTML message: totals first, then one
// line per week that found matches.
func FormatSummary(s runstats.Summary) string {
	var b strings.Builder

	title := "Season scrape finished"
	if s.Error != "" {
		title = "Season scrape failed"
	}
	if s.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintf(&b, "<b>%s</b>\n", title)
	fmt.Fprintf(&b, "Run: <code>%s</code>\n", html.EscapeString(s.RunID))
	if d := s.Duration(); d > 0 {
		fmt.Fprintf(&b, "Duration: %s\n", d.Round(time.Second))
	}

	t := s.Totals()
	fmt.Fprintf(&b, "Matches: %d (finished %d, upcoming %d)\n", t.Found, t.Finished, t.Unfinished)
	fmt.Fprintf(&b, "With line: %d, stored: %d, failed: %d\n", t.WithLine, t.Stored, t.Failed)

	var weeks []string
	for _, w := range s.Weeks {
		if w.Found == 0 {
			continue
		}
		mark := ""
		if !w.Confirmed {
			mark = " ?"
		}
		weeks = append(weeks, fmt.Sprintf("W%d%s: %d/%d", w.Week, mark, w.WithLine, w.Found))
	}
	if len(weeks) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(weeks, "\n"))
		b.WriteString("\n")
	}

	if s.Error != "" {
		fmt.Fprintf(&b, "\nError: <code>%s</code>\n", html.EscapeString(s.Error))
	}
	return strings.TrimRight(b.String(), "\n")
}
