package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Vodeneev/overunder/internal/pkg/browser/browsertest"
	"github.com/Vodeneev/overunder/internal/pkg/models"
)

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) count(d time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.waits {
		if w == d {
			n++
		}
	}
	return n
}

// weekWidget simulates the round selector: arrows move the round, and the label
// catches up with the displayed round only after lag reads.
type weekWidget struct {
	mu sync.Mutex

	week      int
	maxWeek   int
	lag       int
	stale     int
	shown     int
	stuck     bool // arrows do nothing
	noDisable bool // prev arrow never reports disabled
	labelErr  error
	fixed     string // when set, the label always reads this
}

func newWeekWidget(start, maxWeek int) *weekWidget {
	return &weekWidget{week: start, shown: start, maxWeek: maxWeek}
}

func (w *weekWidget) move(delta int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stuck {
		return
	}
	next := w.week + delta
	if next < 1 || next > w.maxWeek {
		return
	}
	w.week = next
	w.stale = w.lag
}

func (w *weekWidget) label() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.labelErr != nil {
		return "", w.labelErr
	}
	if w.fixed != "" {
		return w.fixed, nil
	}
	if w.stale > 0 {
		w.stale--
	} else {
		w.shown = w.week
	}
	return fmt.Sprintf("  %d. Hafta  ", w.shown), nil
}

func (w *weekWidget) prevDisabled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.noDisable && w.week == 1
}

func (w *weekWidget) current() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.week
}

// install wires the widget into page, keeping any hooks the widget does not own.
func (w *weekWidget) install(page *browsertest.FakePage) {
	clickNext := page.ClickFunc
	page.ClickFunc = func(selector string) error {
		switch selector {
		case selPrevArrow:
			w.move(-1)
			return nil
		case selNextArrow:
			w.move(1)
			return nil
		}
		if clickNext != nil {
			return clickNext(selector)
		}
		return nil
	}

	textNext := page.TextFunc
	page.TextFunc = func(selector string) (string, error) {
		if selector == selWeekLabel {
			return w.label()
		}
		if textNext != nil {
			return textNext(selector)
		}
		return "", errors.New("no element " + selector)
	}

	evalNext := page.EvaluateFunc
	page.EvaluateFunc = func(script string) (any, error) {
		if strings.Contains(script, classArrowDisabled) {
			return w.prevDisabled(), nil
		}
		if evalNext != nil {
			return evalNext(script)
		}
		return nil, nil
	}
}

type fixtureRow struct {
	home, away   string
	scoreHome    string
	scoreAway    string
	status, href string
}

func finished(home, away, sh, sa, href string) fixtureRow {
	return fixtureRow{home: home, away: away, scoreHome: sh, scoreAway: sa, status: models.FinishedStatus, href: href}
}

func upcoming(home, away, kickoff, href string) fixtureRow {
	return fixtureRow{home: home, away: away, status: kickoff, href: href}
}

// fixtureBlock renders one date header and its match container the way the
// fixture page lays them out.
func fixtureBlock(date string, rows ...fixtureRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="p0c-competition-match-list__title">%s</div>`, date)
	b.WriteString(`<div class="p0c-competition-match-list__matches">`)
	for _, r := range rows {
		b.WriteString(`<div class="p0c-competition-match-list__row">`)
		fmt.Fprintf(&b, `<span class="p0c-competition-match-list__status">%s</span>`, r.status)
		fmt.Fprintf(&b, `<div class="p0c-competition-match-list__team-name--home"><span class="p0c-competition-match-list__team-full">%s</span></div>`, r.home)
		fmt.Fprintf(&b, `<div class="p0c-competition-match-list__team p0c-competition-match-list__team--home"><span class="p0c-competition-match-list__score">%s</span></div>`, r.scoreHome)
		fmt.Fprintf(&b, `<div class="p0c-competition-match-list__team p0c-competition-match-list__team--away"><span class="p0c-competition-match-list__score">%s</span></div>`, r.scoreAway)
		fmt.Fprintf(&b, `<div class="p0c-competition-match-list__team-name--away"><span class="p0c-competition-match-list__team-full">%s</span></div>`, r.away)
		if r.href != "" {
			fmt.Fprintf(&b, `<a class="p0c-competition-match-list__match-link" href="%s">detay</a>`, r.href)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}
