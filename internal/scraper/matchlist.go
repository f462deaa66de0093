package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Vodeneev/overunder/internal/pkg/browser"
	"github.com/Vodeneev/overunder/internal/pkg/models"
	"github.com/Vodeneev/overunder/internal/pkg/validation"
)

// ListConfig bounds the week page read.
type ListConfig struct {
	Timeout     time.Duration
	SettleDelay time.Duration
}

func DefaultListConfig() ListConfig {
	return ListConfig{Timeout: 20 * time.Second, SettleDelay: 2 * time.Second}
}

const scrollToBottomScript = `window.scrollBy(0, document.body.scrollHeight)`

// visibleBlocksScript returns, for every laid-out date header, the header's HTML
// followed by its sibling match block. Neighbouring rounds stay mounted but hidden,
// so visibility has to be judged in the page.
var visibleBlocksScript = fmt.Sprintf(`(() => {
	return Array.from(document.querySelectorAll(%q))
		.filter(el => el.offsetWidth > 0 && el.offsetHeight > 0)
		.map(header => {
			const next = header.nextElementSibling;
			return header.outerHTML + (next ? next.outerHTML : "");
		});
})()`, selDateHeader)

// MatchListExtractor reads the match rows of the displayed round.
type MatchListExtractor struct {
	page  browser.Page
	cfg   ListConfig
	sleep Sleeper
	base  *url.URL
}

// NewMatchListExtractor resolves relative detail links against baseURL.
func NewMatchListExtractor(page browser.Page, cfg ListConfig, sleep Sleeper, baseURL string) *MatchListExtractor {
	if sleep == nil {
		sleep = Sleep
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}
	return &MatchListExtractor{page: page, cfg: cfg, sleep: sleep, base: base}
}

func (e *MatchListExtractor) Extract(ctx context.Context) ([]models.MatchSummary, error) {
	if err := e.page.WaitVisible(ctx, selMatchList, e.cfg.Timeout); err != nil {
		return nil, fmt.Errorf("wait for match list: %w", err)
	}

	// Lazy rows mount on scroll.
	if err := e.page.Evaluate(ctx, scrollToBottomScript, nil); err != nil {
		slog.Warn("Failed to scroll match list", "error", err)
	}
	if err := e.sleep(ctx, e.cfg.SettleDelay); err != nil {
		return nil, err
	}

	var blocks []string
	if err := e.page.Evaluate(ctx, visibleBlocksScript, &blocks); err != nil {
		return nil, fmt.Errorf("read visible match blocks: %w", err)
	}
	return ParseMatchBlocks(blocks, e.base)
}

// ParseMatchBlocks turns header+matches HTML fragments into summaries. Rows
// missing either team name are dropped.
func ParseMatchBlocks(blocks []string, base *url.URL) ([]models.MatchSummary, error) {
	var out []models.MatchSummary
	for i, block := range blocks {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(block))
		if err != nil {
			return nil, fmt.Errorf("parse match block %d: %w", i, err)
		}

		header := doc.Find(selDateHeader).First()
		if header.Length() == 0 {
			continue
		}
		container := header.Next()
		if !container.HasClass(classMatchesBlock) {
			continue
		}
		date := strings.TrimSpace(header.Text())

		container.Find(selMatchRow).Each(func(_ int, row *goquery.Selection) {
			summary := models.MatchSummary{
				Date:      date,
				HomeTeam:  firstText(row, selHomeTeam),
				AwayTeam:  firstText(row, selAwayTeam),
				ScoreHome: firstText(row, selHomeScore),
				ScoreAway: firstText(row, selAwayScore),
				Status:    firstText(row, selMatchStatus),
			}
			validation.SanitizeSummary(&summary)
			if summary.HomeTeam == "" || summary.AwayTeam == "" {
				return
			}
			if href, ok := row.Find(selMatchLink).First().Attr("href"); ok {
				summary.DetailLink = resolveLink(base, href)
			}
			out = append(out, summary)
		})
	}
	return out, nil
}

func firstText(s *goquery.Selection, selector string) string {
	return strings.TrimSpace(s.Find(selector).First().Text())
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
