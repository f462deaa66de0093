package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/overunder/internal/pkg/runstats"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

var t0 = time.Date(2025, time.October, 20, 8, 0, 0, 0, time.UTC)

func sampleSummary() runstats.Summary {
	return runstats.Summary{
		RunID:      "run-1",
		StartedAt:  t0,
		FinishedAt: t0.Add(3*time.Minute + 20*time.Second),
		Weeks: []runstats.WeekStats{
			{Week: 1, Confirmed: true, Found: 9, Finished: 9, WithLine: 8, Stored: 9},
			{Week: 2, Confirmed: false, Found: 9, Finished: 4, Unfinished: 5, WithLine: 4, Stored: 8, Failed: 1},
			{Week: 3, Confirmed: true},
		},
	}
}

func TestFormatSummary(t *testing.T) {
	got := FormatSummary(sampleSummary())

	want := "<b>Season scrape finished</b>\n" +
		"Run: <code>run-1</code>\n" +
		"Duration: 3m20s\n" +
		"Matches: 18 (finished 13, upcoming 5)\n" +
		"With line: 12, stored: 17, failed: 1\n" +
		"\n" +
		"W1: 8/9\n" +
		"W2 ?: 4/9"
	assert.Equal(t, want, got)
}

func TestFormatSummary_FailedDryRun(t *testing.T) {
	s := runstats.Summary{RunID: "run-<2>", DryRun: true, StartedAt: t0, Error: "navigate to https://x: context deadline exceeded & more"}
	got := FormatSummary(s)

	assert.Contains(t, got, "<b>Season scrape failed (dry run)</b>")
	assert.Contains(t, got, "run-&lt;2&gt;")
	assert.Contains(t, got, "context deadline exceeded &amp; more")
	assert.NotContains(t, got, "Duration")
}

func TestTelegram_Notify(t *testing.T) {
	fake := &fakeSender{}
	n := &Telegram{bot: fake, chatID: -100123}

	require.NoError(t, n.Notify(context.Background(), sampleSummary()))
	require.Len(t, fake.sent, 1)
	assert.Equal(t, int64(-100123), fake.sent[0].ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, fake.sent[0].ParseMode)
	assert.Contains(t, fake.sent[0].Text, "Season scrape finished")

	fake.err = errors.New("Too Many Requests: retry after 5")
	assert.ErrorContains(t, n.Notify(context.Background(), sampleSummary()), "send telegram summary")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.Notify(ctx, sampleSummary()), context.Canceled)
}
