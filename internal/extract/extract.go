package extract

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gearhound/gearpage-scraper/internal/models"
)

// BaseURL is the origin relative result links are resolved against.
const BaseURL = "https://www.thegearpage.net"

// Strategy locates result records within one layout variant of the search
// results page. Strategies run in priority order; candidates they emit may
// carry relative hrefs, the extractor resolves and deduplicates them.
type Strategy interface {
	Name() string
	Extract(doc *goquery.Document) []models.SearchResultRecord
}

type Extractor struct {
	strategies []Strategy
	base       *url.URL
	logger     *slog.Logger
}

// New returns an extractor running the three known layouts in priority
// order: modern struct-item cards, older content rows, then generic
// block rows for inconsistently rendered pages.
func New() *Extractor {
	base, _ := url.Parse(BaseURL)
	return &Extractor{
		strategies: []Strategy{
			structItemStrategy{},
			contentRowStrategy{},
			blockRowStrategy{},
		},
		base:   base,
		logger: slog.Default().With("component", "extractor"),
	}
}

// Extract parses the markup of a rendered search results page and returns
// the ordered, link-deduplicated records found by all strategies. A page
// with zero survivors is an empty slice, not an error.
func (e *Extractor) Extract(html string) ([]models.SearchResultRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	seen := make(map[string]struct{})
	results := make([]models.SearchResultRecord, 0)

	for _, strategy := range e.strategies {
		candidates := strategy.Extract(doc)
		added := 0
		for _, rec := range candidates {
			link := e.resolveLink(rec.Link)
			if link == "" {
				continue
			}
			if _, dup := seen[link]; dup {
				continue
			}
			seen[link] = struct{}{}
			rec.Link = link
			results = append(results, rec)
			added++
		}
		if added > 0 {
			e.logger.Debug("strategy matched", "strategy", strategy.Name(), "records", added)
		}
	}

	return results, nil
}

func (e *Extractor) resolveLink(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return e.base.ResolveReference(ref).String()
}

// structItemStrategy matches the modern XenForo result card markup. A card
// without a title link anchor is skipped.
type structItemStrategy struct{}

func (structItemStrategy) Name() string { return "struct-item" }

func (structItemStrategy) Extract(doc *goquery.Document) []models.SearchResultRecord {
	var out []models.SearchResultRecord
	doc.Find("div.structItem").Each(func(_ int, item *goquery.Selection) {
		title := item.Find(".structItem-title").First()
		link := title.Find("a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		out = append(out, models.SearchResultRecord{
			Title:   models.Text(collapseSpace(title.Text())),
			Snippet: models.Text(collapseSpace(item.Find(".structItem-snippet, .structItem-minor").First().Text())),
			Author:  models.Text(collapseSpace(item.Find(".username").First().Text())),
			Posted:  timestampAttr(item),
			Link:    href,
		})
	})
	return out
}

// contentRowStrategy matches the older content-row result markup. A row
// without a title anchor is skipped.
type contentRowStrategy struct{}

func (contentRowStrategy) Name() string { return "content-row" }

func (contentRowStrategy) Extract(doc *goquery.Document) []models.SearchResultRecord {
	var out []models.SearchResultRecord
	doc.Find("div.contentRow").Each(func(_ int, row *goquery.Selection) {
		title := row.Find(".contentRow-title a").First()
		href, ok := title.Attr("href")
		if !ok {
			return
		}
		out = append(out, models.SearchResultRecord{
			Title:   models.Text(collapseSpace(title.Text())),
			Snippet: models.Text(collapseSpace(row.Find(".contentRow-snippet").First().Text())),
			Author:  models.Text(collapseSpace(row.Find(".contentRow-extra > span").First().Text())),
			Posted:  timestampAttr(row),
			Link:    href,
		})
	})
	return out
}

// blockRowStrategy is the minimal fallback for pages where the board
// renders plain block rows. Any anchor qualifies; author is never present
// in this layout.
type blockRowStrategy struct{}

func (blockRowStrategy) Name() string { return "block-row" }

func (blockRowStrategy) Extract(doc *goquery.Document) []models.SearchResultRecord {
	var out []models.SearchResultRecord
	doc.Find("li.block-row").Each(func(_ int, row *goquery.Selection) {
		anchor := row.Find("a").First()
		href, ok := anchor.Attr("href")
		if !ok {
			return
		}
		snippet := row.Find(".listHeap").First()
		if snippet.Length() == 0 {
			snippet = row
		}
		out = append(out, models.SearchResultRecord{
			Title:   models.Text(collapseSpace(anchor.Text())),
			Snippet: models.Text(collapseSpace(snippet.Text())),
			Author:  nil,
			Posted:  timestampAttr(row),
			Link:    href,
		})
	})
	return out
}

// timestampAttr reads the machine-readable datetime attribute of the first
// time element in the selection, never its visible text.
func timestampAttr(s *goquery.Selection) *string {
	if dt, ok := s.Find("time").First().Attr("datetime"); ok {
		return models.Text(strings.TrimSpace(dt))
	}
	return nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
