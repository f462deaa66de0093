package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Vodeneev/overunder/internal/pkg/browser"
	"github.com/Vodeneev/overunder/internal/pkg/models"
)

// OddsConfig bounds the match-detail market read.
type OddsConfig struct {
	Timeout     time.Duration
	SettleDelay time.Duration
}

func DefaultOddsConfig() OddsConfig {
	return OddsConfig{Timeout: 10 * time.Second, SettleDelay: 2 * time.Second}
}

var (
	// selectOverUnderScript clicks the market filter tab and reports whether it exists.
	selectOverUnderScript = fmt.Sprintf(`(() => {
		const target = Array.from(document.querySelectorAll(%q))
			.find(t => t.textContent.includes(%q));
		if (!target) return false;
		target.click();
		return true;
	})()`, selMarketTab, overUnderTabLabel)

	marketsScript = fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).map(m => m.outerHTML)`, selMarket)

	parenthesized = regexp.MustCompile(`\(([^)]+)\)`)
)

// OddsExtractor reads the over/under line from a loaded match-detail page.
// It never fails: a missing line is reported as nil.
type OddsExtractor struct {
	cfg   OddsConfig
	sleep Sleeper
}

func NewOddsExtractor(cfg OddsConfig, sleep Sleeper) *OddsExtractor {
	if sleep == nil {
		sleep = Sleep
	}
	return &OddsExtractor{cfg: cfg, sleep: sleep}
}

func (e *OddsExtractor) Extract(ctx context.Context, page browser.Page) *models.BettingLine {
	line, err := e.extract(ctx, page)
	if err != nil {
		slog.Info("Betting info not available", "reason", err, "timeout", errors.Is(err, context.DeadlineExceeded))
		return nil
	}
	if line == nil {
		slog.Info("Betting info not available", "reason", "no over/under market")
	}
	return line
}

func (e *OddsExtractor) extract(ctx context.Context, page browser.Page) (*models.BettingLine, error) {
	if err := page.WaitVisible(ctx, selIddaaTab, e.cfg.Timeout); err != nil {
		return nil, fmt.Errorf("wait for iddaa tab: %w", err)
	}
	if err := page.Click(ctx, selIddaaTab, e.cfg.Timeout); err != nil {
		return nil, fmt.Errorf("click iddaa tab: %w", err)
	}

	if err := page.WaitVisible(ctx, selMarketTab, e.cfg.Timeout); err != nil {
		return nil, fmt.Errorf("wait for market tabs: %w", err)
	}
	var selected bool
	if err := page.Evaluate(ctx, selectOverUnderScript, &selected); err != nil {
		return nil, fmt.Errorf("select over/under tab: %w", err)
	}
	if !selected {
		return nil, fmt.Errorf("no %q market tab", overUnderTabLabel)
	}
	if err := e.sleep(ctx, e.cfg.SettleDelay); err != nil {
		return nil, err
	}

	var markets []string
	if err := page.Evaluate(ctx, marketsScript, &markets); err != nil {
		return nil, fmt.Errorf("read markets: %w", err)
	}
	return ParseOverUnder(markets), nil
}

// ParseOverUnder scans market HTML fragments for the first over/under market
// whose header carries a parenthesized threshold and whose "over" option has a
// readable payout.
func ParseOverUnder(markets []string) *models.BettingLine {
	for _, market := range markets {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(market))
		if err != nil {
			continue
		}
		if line := parseMarket(doc.Selection); line != nil {
			return line
		}
	}
	return nil
}

func parseMarket(m *goquery.Selection) *models.BettingLine {
	header := strings.TrimSpace(m.Find(selMarketHeader).First().Text())
	if !isOverUnderHeader(header) {
		return nil
	}
	match := parenthesized.FindStringSubmatch(header)
	if match == nil {
		return nil
	}
	limit, ok := ParseDecimal(match[1])
	if !ok {
		return nil
	}

	var payoutText string
	found := false
	m.Find(selMarketOption).EachWithBreak(func(_ int, opt *goquery.Selection) bool {
		label := strings.TrimSpace(opt.Find(selOptionLabel).First().Text())
		if !slices.Contains(overOptionLabels, label) {
			return true
		}
		payoutText = strings.TrimSpace(opt.Find(selOptionValue).First().Text())
		found = true
		return false
	})
	if !found {
		return nil
	}
	payout, ok := ParseDecimal(payoutText)
	if !ok {
		return nil
	}
	return &models.BettingLine{Limit: limit, OverPayout: payout}
}

func isOverUnderHeader(header string) bool {
	for _, h := range overUnderHeaders {
		if strings.Contains(header, h) {
			return true
		}
	}
	return false
}

// ParseDecimal reads a decimal-comma number such as "155,5". It reports false for
// empty, malformed or non-finite input.
func ParseDecimal(s string) (float64, bool) {
	s = strings.Replace(strings.TrimSpace(s), ",", ".", 1)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
