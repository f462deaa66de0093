package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Vodeneev/overunder/internal/pkg/browser"
)

// NavState is the position of a WeekNavigator in its state machine.
type NavState int

const (
	StateUnknown NavState = iota
	StateRewinding
	StateAtWeekOne
	StateRewindExhausted
	StateAwaitingLabel
	StateConfirmed
	StateUnconfirmed
)

func (s NavState) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateRewinding:
		return "rewinding"
	case StateAtWeekOne:
		return "at_week_one"
	case StateRewindExhausted:
		return "rewind_exhausted"
	case StateAwaitingLabel:
		return "awaiting_label"
	case StateConfirmed:
		return "confirmed"
	case StateUnconfirmed:
		return "unconfirmed"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// NavigatorConfig bounds the navigator's polling.
type NavigatorConfig struct {
	RewindAttempts int
	RewindDelay    time.Duration
	LabelAttempts  int
	LabelPollDelay time.Duration
	LabelTimeout   time.Duration
	AdvanceDelay   time.Duration
	ClickTimeout   time.Duration
}

// DefaultNavigatorConfig matches the pacing the fixture widget needs to animate.
func DefaultNavigatorConfig() NavigatorConfig {
	return NavigatorConfig{
		RewindAttempts: 40,
		RewindDelay:    3 * time.Second,
		LabelAttempts:  5,
		LabelPollDelay: 2 * time.Second,
		LabelTimeout:   10 * time.Second,
		AdvanceDelay:   3 * time.Second,
		ClickTimeout:   10 * time.Second,
	}
}

// WeekDesignator is the label prefix shown for round w.
func WeekDesignator(w int) string {
	return strconv.Itoa(w) + weekLabelSuffix
}

// LabelMatchesWeek reports whether label shows round w.
func LabelMatchesWeek(label string, w int) bool {
	return strings.HasPrefix(strings.TrimSpace(label), WeekDesignator(w))
}

// WeekNavigator drives the week selector with its prev/next arrows, using the
// selected label as the only evidence of the displayed round.
type WeekNavigator struct {
	page  browser.Page
	cfg   NavigatorConfig
	sleep Sleeper

	state NavState
	week  int
	label string
}

func NewWeekNavigator(page browser.Page, cfg NavigatorConfig, sleep Sleeper) *WeekNavigator {
	if sleep == nil {
		sleep = Sleep
	}
	return &WeekNavigator{page: page, cfg: cfg, sleep: sleep}
}

func (n *WeekNavigator) State() NavState { return n.state }

// Week is the round the current state refers to; 0 before any round is targeted.
func (n *WeekNavigator) Week() int { return n.week }

// Label is the last label text read.
func (n *WeekNavigator) Label() string { return n.label }

// RewindToFirst clicks "previous" until round 1 is shown or the prev arrow is
// disabled. After RewindAttempts clicks it gives up in StateRewindExhausted and
// the caller proceeds from whatever round is displayed.
func (n *WeekNavigator) RewindToFirst(ctx context.Context) NavState {
	slog.Info("Navigating back to the first week...")
	n.state = StateRewinding
	n.week = 0

	for attempt := 1; attempt <= n.cfg.RewindAttempts; attempt++ {
		label, err := n.readLabel(ctx)
		if err != nil {
			slog.Warn("Failed to read week label", "attempt", attempt, "error", err)
		} else {
			slog.Info("Current week label", "attempt", attempt, "label", label)
			if LabelMatchesWeek(label, 1) {
				slog.Info("Confirmed: reached week 1")
				return n.enter(StateAtWeekOne, 1)
			}
		}

		disabled, err := n.prevDisabled(ctx)
		if err != nil {
			slog.Warn("Failed to inspect prev arrow", "attempt", attempt, "error", err)
		} else if disabled {
			slog.Info("Prev arrow disabled, assuming week 1")
			return n.enter(StateAtWeekOne, 1)
		}

		if err := n.page.Click(ctx, selPrevArrow, n.cfg.ClickTimeout); err != nil {
			slog.Warn("Failed to click prev arrow", "attempt", attempt, "error", err)
		}
		if err := n.sleep(ctx, n.cfg.RewindDelay); err != nil {
			break
		}
	}

	slog.Warn("Could not confirm week 1, continuing from the displayed week",
		"attempts", n.cfg.RewindAttempts, "label", n.label)
	return n.enter(StateRewindExhausted, 0)
}

// AwaitLabel polls the label until it shows round week. Exhausting LabelAttempts
// ends in StateUnconfirmed, which callers treat as a soft failure.
func (n *WeekNavigator) AwaitLabel(ctx context.Context, week int) NavState {
	n.enter(StateAwaitingLabel, week)

	for attempt := 1; attempt <= n.cfg.LabelAttempts; attempt++ {
		label, err := n.page.Text(ctx, selWeekLabel)
		if err == nil {
			n.label = strings.TrimSpace(label)
			if LabelMatchesWeek(label, week) {
				return n.enter(StateConfirmed, week)
			}
		}
		slog.Info("Waiting for label to switch", "week", week, "current", n.label, "attempt", attempt, "error", err)
		if err := n.sleep(ctx, n.cfg.LabelPollDelay); err != nil {
			break
		}
	}

	slog.Warn("Week label not confirmed, scraping the displayed week", "week", week, "label", n.label)
	return n.enter(StateUnconfirmed, week)
}

// Advance clicks "next" and waits for the slide animation. The wait happens even
// when the click fails. It is only valid once the current round has been
// confirmed or given up on.
func (n *WeekNavigator) Advance(ctx context.Context) error {
	if n.state != StateConfirmed && n.state != StateUnconfirmed {
		return fmt.Errorf("advance from state %s", n.state)
	}
	slog.Info("Moving to the next week", "from", n.week, "to", n.week+1)
	clickErr := n.page.Click(ctx, selNextArrow, n.cfg.ClickTimeout)
	if err := n.sleep(ctx, n.cfg.AdvanceDelay); err != nil {
		return err
	}
	if clickErr != nil {
		return fmt.Errorf("click next arrow: %w", clickErr)
	}
	n.enter(StateAwaitingLabel, n.week+1)
	return nil
}

func (n *WeekNavigator) enter(state NavState, week int) NavState {
	n.state = state
	n.week = week
	return state
}

func (n *WeekNavigator) readLabel(ctx context.Context) (string, error) {
	if err := n.page.WaitVisible(ctx, selWeekLabel, n.cfg.LabelTimeout); err != nil {
		return "", fmt.Errorf("wait for week label: %w", err)
	}
	label, err := n.page.Text(ctx, selWeekLabel)
	if err != nil {
		return "", fmt.Errorf("read week label: %w", err)
	}
	n.label = strings.TrimSpace(label)
	return n.label, nil
}

func (n *WeekNavigator) prevDisabled(ctx context.Context) (bool, error) {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		return !!el && el.classList.contains(%q);
	})()`, selPrevArrow, classArrowDisabled)
	var disabled bool
	if err := n.page.Evaluate(ctx, script, &disabled); err != nil {
		return false, err
	}
	return disabled, nil
}
