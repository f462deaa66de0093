package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Vodeneev/overunder/internal/pkg/browser"
	"github.com/Vodeneev/overunder/internal/pkg/config"
	"github.com/Vodeneev/overunder/internal/pkg/models"
	"github.com/Vodeneev/overunder/internal/pkg/runstats"
	"github.com/Vodeneev/overunder/internal/pkg/storage"
	"github.com/Vodeneev/overunder/internal/pkg/validation"
)

// RunConfig is everything a season run needs besides its collaborators.
type RunConfig struct {
	BaseURL  string
	Weeks    int
	Location *time.Location

	GotoTimeout    time.Duration
	DetailTimeout  time.Duration
	ConsentTimeout time.Duration
	MatchDelay     time.Duration

	Navigator NavigatorConfig
	List      ListConfig
	Odds      OddsConfig
}

// RunConfigFrom maps the scraper section of the application config.
func RunConfigFrom(c config.ScraperConfig) (RunConfig, error) {
	loc, err := c.Location()
	if err != nil {
		return RunConfig{}, err
	}
	return RunConfig{
		BaseURL:        c.BaseURL,
		Weeks:          c.Weeks,
		Location:       loc,
		GotoTimeout:    c.GotoTimeout,
		DetailTimeout:  c.DetailTimeout,
		ConsentTimeout: c.ConsentTimeout,
		MatchDelay:     c.MatchDelay,
		Navigator: NavigatorConfig{
			RewindAttempts: c.RewindAttempts,
			RewindDelay:    c.RewindDelay,
			LabelAttempts:  c.LabelAttempts,
			LabelPollDelay: c.LabelPollDelay,
			LabelTimeout:   c.ElementTimeout,
			AdvanceDelay:   c.AdvanceDelay,
			ClickTimeout:   c.ElementTimeout,
		},
		List: ListConfig{Timeout: c.ListTimeout, SettleDelay: c.ListSettle},
		Odds: OddsConfig{Timeout: c.ElementTimeout, SettleDelay: c.OddsSettle},
	}, nil
}

// Runner walks a whole season and appends one record per match to its sink.
type Runner struct {
	cfg     RunConfig
	launch  browser.Launcher
	sink    storage.Sink
	tracker *runstats.Tracker
	sleep   Sleeper
	now     func() time.Time
	newID   func() string
}

type Option func(*Runner)

// WithSleeper replaces the wall-clock waits.
func WithSleeper(s Sleeper) Option { return func(r *Runner) { r.sleep = s } }

// WithClock replaces time.Now for recordedAt stamps.
func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

// WithTracker shares a tracker with other readers such as the health server.
func WithTracker(t *runstats.Tracker) Option { return func(r *Runner) { r.tracker = t } }

// WithRunID fixes the run id generator.
func WithRunID(newID func() string) Option { return func(r *Runner) { r.newID = newID } }

// NewRunner builds a Runner. A nil sink means a dry run.
func NewRunner(cfg RunConfig, launch browser.Launcher, sink storage.Sink, opts ...Option) *Runner {
	if sink == nil {
		sink = storage.NoopSink{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	r := &Runner{
		cfg:     cfg,
		launch:  launch,
		sink:    sink,
		tracker: runstats.NewTracker(),
		sleep:   Sleep,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run scrapes every round. Only a failure to start the browser or to open the
// season page is returned; everything below that is logged and skipped. The
// browser is closed on every path.
func (r *Runner) Run(ctx context.Context) (summary runstats.Summary, err error) {
	runID := r.newID()
	dryRun := storage.IsDryRun(r.sink)
	r.tracker.Start(runID, r.cfg.Weeks, dryRun, r.now())
	defer func() {
		summary = r.tracker.Finish(err, r.now())
	}()

	slog.Info("Starting browser...", "run_id", runID, "dry_run", dryRun)
	b, err := r.launch(ctx)
	if err != nil {
		return summary, fmt.Errorf("start browser: %w", err)
	}
	defer func() {
		slog.Info("Scraping complete or stopped, closing browser")
		if cerr := b.Close(); cerr != nil {
			slog.Warn("Failed to close browser", "error", cerr)
		}
	}()

	page := b.Page()
	slog.Info("Navigating to season page", "url", r.cfg.BaseURL)
	if err := page.Goto(ctx, r.cfg.BaseURL, r.cfg.GotoTimeout); err != nil {
		return summary, fmt.Errorf("navigate to %s: %w", r.cfg.BaseURL, err)
	}

	r.dismissConsent(ctx, page)

	nav := NewWeekNavigator(page, r.cfg.Navigator, r.sleep)
	nav.RewindToFirst(ctx)

	list := NewMatchListExtractor(page, r.cfg.List, r.sleep, r.cfg.BaseURL)
	odds := NewOddsExtractor(r.cfg.Odds, r.sleep)

	for week := 1; week <= r.cfg.Weeks; week++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		state := nav.AwaitLabel(ctx, week)
		r.tracker.Update(week, func(w *runstats.WeekStats) {
			w.Label = nav.Label()
			w.Confirmed = state == StateConfirmed
		})

		r.scrapeWeek(ctx, page, list, odds, runID, week)

		if week < r.cfg.Weeks {
			if err := nav.Advance(ctx); err != nil {
				slog.Warn("Failed to move to next week", "week", week, "error", err)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (r *Runner) dismissConsent(ctx context.Context, page browser.Page) {
	slog.Info("Checking for cookie modal...")
	if err := page.Click(ctx, selConsentButton, r.cfg.ConsentTimeout); err != nil {
		slog.Info("No cookie modal found or timeout")
		return
	}
	slog.Info("Cookie modal closed")
}

func (r *Runner) scrapeWeek(ctx context.Context, page browser.Page, list *MatchListExtractor, odds *OddsExtractor, runID string, week int) {
	slog.Info("Scraping week", "week", week)

	matches, err := list.Extract(ctx)
	if err != nil {
		slog.Error("Failed to read match list", "week", week, "error", err)
		return
	}

	finished := 0
	for _, m := range matches {
		if m.IsFinished() {
			finished++
		}
	}
	r.tracker.Update(week, func(w *runstats.WeekStats) {
		w.Found = len(matches)
		w.Finished = finished
		w.Unfinished = len(matches) - finished
	})
	slog.Info("Found matches for week", "week", week, "total", len(matches),
		"finished", finished, "unfinished", len(matches)-finished)

	for _, m := range matches {
		if err := r.processMatch(ctx, page, odds, runID, week, m); err != nil {
			slog.Error("Error scraping match", "week", week, "home", m.HomeTeam, "away", m.AwayTeam, "error", err)
			r.tracker.Update(week, func(w *runstats.WeekStats) { w.Failed++ })
		}
		if err := r.sleep(ctx, r.cfg.MatchDelay); err != nil {
			return
		}
	}

	if w, ok := r.tracker.Week(week); ok {
		slog.Info("Week done", "week", week, "found", w.Found, "with_line", w.WithLine,
			"stored", w.Stored, "failed", w.Failed)
	}
}

func (r *Runner) processMatch(ctx context.Context, page browser.Page, odds *OddsExtractor, runID string, week int, m models.MatchSummary) error {
	var line *models.BettingLine
	if m.IsFinished() && m.DetailLink != "" {
		var err error
		line, err = r.fetchLine(ctx, page, odds, m.DetailLink)
		if err != nil {
			return err
		}
	}

	cls, err := Classify(m.Status, m.ScoreHome, m.ScoreAway, line)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	rec := &models.MatchRecord{
		MatchSummary:   m,
		Week:           week,
		TotalScore:     cls.TotalScore,
		Result:         cls.Result,
		MatchTimestamp: ParseMatchDate(m.Date, r.cfg.Location),
		RecordedAt:     r.now().UTC(),
		RunID:          runID,
	}
	rec.ApplyLine(line)

	score := "v s"
	if m.IsFinished() {
		score = m.ScoreHome + "-" + m.ScoreAway
	}
	slog.Info(fmt.Sprintf("[Week %d] %s: %s %s %s (%s) -> %s", week, m.Date, m.HomeTeam, score, m.AwayTeam, m.Status, rec.Result),
		"limit", models.FormatOdd(rec.Limit), "over_payout", models.FormatOdd(rec.OverPayout))

	if line != nil {
		r.tracker.Update(week, func(w *runstats.WeekStats) { w.WithLine++ })
	}

	if err := validation.ValidateRecord(rec); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}
	if storage.IsDryRun(r.sink) {
		return nil
	}
	if err := r.sink.Append(ctx, rec); err != nil {
		return fmt.Errorf("store record: %w", err)
	}
	r.tracker.Update(week, func(w *runstats.WeekStats) { w.Stored++ })
	return nil
}

// fetchLine opens the match in a secondary tab so the week list keeps its state.
// The tab is closed before returning.
func (r *Runner) fetchLine(ctx context.Context, page browser.Page, odds *OddsExtractor, link string) (*models.BettingLine, error) {
	detail, err := page.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("open detail tab: %w", err)
	}
	defer func() {
		if cerr := detail.Close(); cerr != nil {
			slog.Warn("Failed to close detail tab", "error", cerr)
		}
	}()

	if err := detail.Goto(ctx, link, r.cfg.DetailTimeout); err != nil {
		return nil, fmt.Errorf("open match page %s: %w", link, err)
	}
	return odds.Extract(ctx, detail), nil
}
