package scraper

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/overunder/internal/pkg/browser"
	"github.com/Vodeneev/overunder/internal/pkg/browser/browsertest"
	"github.com/Vodeneev/overunder/internal/pkg/models"
	"github.com/Vodeneev/overunder/internal/pkg/runstats"
)

type recordingSink struct {
	mu      sync.Mutex
	records []*models.MatchRecord
	failFor string
}

func (s *recordingSink) Append(ctx context.Context, rec *models.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor != "" && rec.HomeTeam == s.failFor {
		return errors.New("write rejected")
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) all() []*models.MatchRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.MatchRecord(nil), s.records...)
}

// season is a scripted fixture site: a week widget on the main page, per-week
// match blocks and per-link detail pages.
type season struct {
	widget  *weekWidget
	weeks   map[int][]string
	markets map[string][]string
	broken  map[string]bool

	mu      sync.Mutex
	tabs    []*browsertest.FakePage
	main    *browsertest.FakePage
	browser *browsertest.FakeBrowser
}

func newSeason(start, maxWeek int) *season {
	s := &season{
		widget:  newWeekWidget(start, maxWeek),
		weeks:   map[int][]string{},
		markets: map[string][]string{},
		broken:  map[string]bool{},
	}
	s.main = &browsertest.FakePage{
		EvaluateFunc: func(script string) (any, error) {
			if strings.Contains(script, selDateHeader) {
				return s.weeks[s.widget.current()], nil
			}
			return nil, nil
		},
		NewPageFunc: func() (browser.Page, error) { return s.newTab(), nil },
	}
	s.widget.install(s.main)
	s.browser = &browsertest.FakeBrowser{Main: s.main}
	return s
}

func (s *season) newTab() *browsertest.FakePage {
	var link string
	tab := &browsertest.FakePage{}
	tab.GotoFunc = func(url string) error {
		link = url
		if s.broken[url] {
			return context.DeadlineExceeded
		}
		return nil
	}
	tab.EvaluateFunc = func(script string) (any, error) {
		if strings.Contains(script, overUnderTabLabel) {
			return len(s.markets[link]) > 0, nil
		}
		return s.markets[link], nil
	}
	s.mu.Lock()
	s.tabs = append(s.tabs, tab)
	s.mu.Unlock()
	return tab
}

func (s *season) openTabs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, tab := range s.tabs {
		if !tab.Closed() {
			n++
		}
	}
	return n
}

func testRunConfig(weeks int) RunConfig {
	return RunConfig{
		BaseURL:        testBaseURL,
		Weeks:          weeks,
		Location:       time.UTC,
		GotoTimeout:    time.Second,
		DetailTimeout:  time.Second,
		ConsentTimeout: time.Second,
		MatchDelay:     500 * time.Millisecond,
		Navigator: NavigatorConfig{
			RewindAttempts: 10,
			RewindDelay:    3 * time.Second,
			LabelAttempts:  5,
			LabelPollDelay: 2 * time.Second,
			LabelTimeout:   time.Second,
			AdvanceDelay:   4 * time.Second,
			ClickTimeout:   time.Second,
		},
		List: ListConfig{Timeout: time.Second, SettleDelay: 1500 * time.Millisecond},
		Odds: OddsConfig{Timeout: time.Second, SettleDelay: 2500 * time.Millisecond},
	}
}

var fixedNow = time.Date(2025, time.October, 20, 8, 0, 0, 0, time.UTC)

func newTestRunner(cfg RunConfig, s *season, sink *recordingSink, sleeps *sleepRecorder, opts ...Option) *Runner {
	opts = append([]Option{
		WithSleeper(sleeps.sleep),
		WithClock(func() time.Time { return fixedNow }),
		WithRunID(func() string { return "run-1" }),
	}, opts...)
	if sink == nil {
		return NewRunner(cfg, s.browser.Launcher(), nil, opts...)
	}
	return NewRunner(cfg, s.browser.Launcher(), sink, opts...)
}

func overUnder(limit, payout string) []string {
	return []string{marketHTML("ALT/ÜST ("+limit+")", [2]string{"Alt", "1,90"}, [2]string{"Üst", payout})}
}

func TestRunner_RunWalksSeason(t *testing.T) {
	s := newSeason(3, 3)
	s.weeks[1] = []string{fixtureBlock("Salı 30.09.2025",
		finished("Fenerbahçe", "Real Madrid", "85", "78", "/mac/1"),
		finished("Anadolu Efes", "Olympiacos", "80", "80", "/mac/2"),
	)}
	s.weeks[2] = []string{fixtureBlock("Perşembe 09.10.2025",
		finished("Monaco", "Partizan", "90", "88", "/mac/3"),
		upcoming("Barcelona", "Baskonia", "20:30", "/mac/4"),
	)}
	s.weeks[3] = []string{fixtureBlock("Salı 14.10.2025",
		finished("Zalgiris", "Bayern", "77", "79", ""),
	)}
	s.markets[testHost+"/mac/1"] = overUnder("160,5", "1,85")
	s.markets[testHost+"/mac/2"] = overUnder("160", "1,75")

	sink := &recordingSink{}
	sleeps := &sleepRecorder{}
	tracker := runstats.NewTracker()

	summary, err := newTestRunner(testRunConfig(3), s, sink, sleeps, WithTracker(tracker)).Run(context.Background())
	require.NoError(t, err)

	recs := sink.all()
	require.Len(t, recs, 5)

	byHome := map[string]*models.MatchRecord{}
	for _, rec := range recs {
		byHome[rec.HomeTeam] = rec
		assert.Equal(t, "run-1", rec.RunID)
		assert.Equal(t, fixedNow, rec.RecordedAt)
		assert.NotEqual(t, models.ResultPending, rec.Result)
	}

	fb := byHome["Fenerbahçe"]
	require.NotNil(t, fb)
	assert.Equal(t, 1, fb.Week)
	assert.Equal(t, models.ResultOver, fb.Result)
	require.NotNil(t, fb.TotalScore)
	assert.Equal(t, 163, *fb.TotalScore)
	require.NotNil(t, fb.Limit)
	assert.InDelta(t, 160.5, *fb.Limit, 1e-9)
	require.NotNil(t, fb.OverPayout)
	assert.InDelta(t, 1.85, *fb.OverPayout, 1e-9)
	require.NotNil(t, fb.MatchTimestamp)
	assert.Equal(t, time.Date(2025, time.September, 30, 12, 0, 0, 0, time.UTC), *fb.MatchTimestamp)

	assert.Equal(t, models.ResultUnder, byHome["Anadolu Efes"].Result)

	monaco := byHome["Monaco"]
	assert.Equal(t, 2, monaco.Week)
	assert.Equal(t, models.ResultNoBettingData, monaco.Result)
	assert.Nil(t, monaco.TotalScore)
	assert.Nil(t, monaco.Limit)

	barca := byHome["Barcelona"]
	assert.Equal(t, models.ResultScheduled, barca.Result)
	assert.Nil(t, barca.TotalScore)

	zalgiris := byHome["Zalgiris"]
	assert.Equal(t, 3, zalgiris.Week)
	assert.Equal(t, models.ResultNoBettingData, zalgiris.Result)

	// Only finished matches with a link get a detail tab, and every tab is closed.
	assert.Len(t, s.tabs, 3)
	assert.Zero(t, s.openTabs())
	assert.Equal(t, 1, s.browser.CloseCount())

	assert.Equal(t, 5, sleeps.count(500*time.Millisecond))
	assert.Equal(t, 2, sleeps.count(4*time.Second), "advance twice for three weeks")
	assert.Equal(t, 2, sleeps.count(3*time.Second), "rewind from week 3")

	assert.Equal(t, "run-1", summary.RunID)
	assert.False(t, summary.DryRun)
	assert.Empty(t, summary.Error)
	require.Len(t, summary.Weeks, 3)
	for i, w := range summary.Weeks {
		assert.True(t, w.Confirmed, "week %d", i+1)
		assert.Equal(t, i+1, w.Week)
	}
	assert.Equal(t, runstats.WeekStats{Week: 2, Label: "2. Hafta", Confirmed: true, Found: 2, Finished: 1, Unfinished: 1, Stored: 2}, summary.Weeks[1])
	totals := summary.Totals()
	assert.Equal(t, 5, totals.Found)
	assert.Equal(t, 2, totals.WithLine)
	assert.Equal(t, 5, totals.Stored)

	last, ok := tracker.Last()
	require.True(t, ok)
	assert.Equal(t, summary, last)
}

func TestRunner_IsolatesMatchFailures(t *testing.T) {
	s := newSeason(1, 2)
	s.weeks[1] = []string{fixtureBlock("Salı 30.09.2025",
		finished("Virtus", "Maccabi", "91", "84", "/mac/broken"),
		finished("Paris", "Dubai", "x", "84", "/mac/odd"),
		finished("ASVEL", "Hapoel", "70", "75", "/mac/ok"),
		finished("Rejected", "Lyon", "70", "75", ""),
	)}
	s.broken[testHost+"/mac/broken"] = true
	s.markets[testHost+"/mac/odd"] = overUnder("150,5", "1,80")
	s.markets[testHost+"/mac/ok"] = overUnder("150,5", "1,80")

	sink := &recordingSink{failFor: "Rejected"}
	summary, err := newTestRunner(testRunConfig(1), s, sink, &sleepRecorder{}).Run(context.Background())
	require.NoError(t, err)

	recs := sink.all()
	require.Len(t, recs, 1)
	assert.Equal(t, "ASVEL", recs[0].HomeTeam)
	assert.Equal(t, models.ResultUnder, recs[0].Result)

	w := summary.Weeks[0]
	assert.Equal(t, 4, w.Found)
	assert.Equal(t, 3, w.Failed)
	assert.Equal(t, 1, w.Stored)
	assert.Zero(t, s.openTabs())
}

func TestRunner_DryRunStoresNothing(t *testing.T) {
	s := newSeason(1, 1)
	s.weeks[1] = []string{fixtureBlock("Salı 30.09.2025",
		finished("Fenerbahçe", "Real Madrid", "85", "78", "/mac/1"),
	)}
	s.markets[testHost+"/mac/1"] = overUnder("160,5", "1,85")

	summary, err := newTestRunner(testRunConfig(1), s, nil, &sleepRecorder{}).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.DryRun)
	assert.Equal(t, 1, summary.Weeks[0].WithLine)
	assert.Zero(t, summary.Weeks[0].Stored)
	assert.Zero(t, summary.Weeks[0].Failed)
}

func TestRunner_NoConsentOverlay(t *testing.T) {
	s := newSeason(1, 1)
	s.weeks[1] = []string{fixtureBlock("Salı 30.09.2025",
		finished("Fenerbahçe", "Real Madrid", "85", "78", "/mac/1"),
	)}
	s.markets[testHost+"/mac/1"] = overUnder("160,5", "1,85")
	widgetClick := s.main.ClickFunc
	s.main.ClickFunc = func(selector string) error {
		if selector == selConsentButton {
			return context.DeadlineExceeded
		}
		return widgetClick(selector)
	}

	sink := &recordingSink{}
	summary, err := newTestRunner(testRunConfig(1), s, sink, &sleepRecorder{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, s.main.Count("Click "+selConsentButton))
	require.Len(t, sink.all(), 1)
	assert.Equal(t, models.ResultOver, sink.all()[0].Result)
	assert.Equal(t, 1, summary.Weeks[0].Stored)
}

func TestRunner_SkipsUnreadableWeek(t *testing.T) {
	s := newSeason(1, 2)
	s.weeks[2] = []string{fixtureBlock("Salı 07.10.2025", finished("Monaco", "Partizan", "90", "88", ""))}
	s.main.WaitVisibleFunc = func(selector string) error {
		if selector == selMatchList && s.widget.current() == 1 {
			return context.DeadlineExceeded
		}
		return nil
	}

	sink := &recordingSink{}
	summary, err := newTestRunner(testRunConfig(2), s, sink, &sleepRecorder{}).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, sink.all(), 1)
	assert.Equal(t, 2, sink.all()[0].Week)
	assert.Zero(t, summary.Weeks[0].Found)
	assert.Equal(t, 1, summary.Weeks[1].Found)
}

func TestRunner_UnconfirmedWeekStillScraped(t *testing.T) {
	s := newSeason(1, 1)
	s.widget.fixed = "Sezon"
	s.weeks[1] = []string{fixtureBlock("Salı 30.09.2025", upcoming("A", "B", "19:00", ""))}

	sink := &recordingSink{}
	summary, err := newTestRunner(testRunConfig(1), s, sink, &sleepRecorder{}).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, summary.Weeks[0].Confirmed)
	assert.Len(t, sink.all(), 1)
}

func TestRunner_FatalErrors(t *testing.T) {
	t.Run("season page unreachable", func(t *testing.T) {
		s := newSeason(1, 1)
		s.main.GotoFunc = func(string) error { return context.DeadlineExceeded }

		summary, err := newTestRunner(testRunConfig(1), s, &recordingSink{}, &sleepRecorder{}).Run(context.Background())
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 1, s.browser.CloseCount())
		assert.NotEmpty(t, summary.Error)
		assert.Zero(t, s.main.Count("WaitVisible "+selMatchList))
	})

	t.Run("browser does not start", func(t *testing.T) {
		launch := func(context.Context) (browser.Browser, error) { return nil, errors.New("no chrome") }
		summary, err := NewRunner(testRunConfig(1), launch, &recordingSink{}, WithSleeper((&sleepRecorder{}).sleep)).
			Run(context.Background())
		require.ErrorContains(t, err, "start browser")
		assert.Equal(t, "start browser: no chrome", summary.Error)
	})

	t.Run("canceled context", func(t *testing.T) {
		s := newSeason(1, 2)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestRunner(testRunConfig(2), s, &recordingSink{}, &sleepRecorder{}).Run(ctx)
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, s.browser.CloseCount())
	})
}
