package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
)

// SearchURL is the board's post search form.
const SearchURL = "https://www.thegearpage.net/board/index.php?search/&type=post"

const (
	searchBoxSelector = "input[name='keywords']"
	resultsSelector   = "div.structItem, div.contentRow, li.block-row"
)

// nextPageSelectors are tried in order; the first match wins.
var nextPageSelectors = []string{
	"a.pageNav-jump--next",
	"a.pageNav-next",
	"a[rel='next']",
}

// BrowserSession drives a single Playwright page through the board's
// search flow. The page is owned by the caller for the whole run.
type BrowserSession struct {
	page    playwright.Page
	timeout time.Duration
	logger  *slog.Logger
}

func NewBrowserSession(page playwright.Page, timeout time.Duration) *BrowserSession {
	return &BrowserSession{
		page:    page,
		timeout: timeout,
		logger:  slog.Default().With("component", "browser_session"),
	}
}

func (s *BrowserSession) SubmitSearch(ctx context.Context, query string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.page.Goto(SearchURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("failed to open search page: %w", err)
	}

	box, err := s.page.WaitForSelector(searchBoxSelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(s.timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("%w: search box never appeared: %v", ErrInputNotFound, err)
	}

	if err := box.Fill(query); err != nil {
		return fmt.Errorf("failed to fill search box: %w", err)
	}
	if err := box.Press("Enter"); err != nil {
		return fmt.Errorf("failed to submit search: %w", err)
	}

	s.logger.Info("submitted search", "query", query)
	return nil
}

func (s *BrowserSession) WaitForResults(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.page.WaitForSelector(resultsSelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(s.timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("%w: results container never appeared: %v", ErrInputNotFound, err)
	}
	return nil
}

func (s *BrowserSession) Content() (string, error) {
	html, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return html, nil
}

// NextPage clicks the first matching next-page control. It reports false
// without error when no control exists, which ends the crawl.
func (s *BrowserSession) NextPage(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	for _, selector := range nextPageSelectors {
		control := s.page.Locator(selector).First()

		count, err := control.Count()
		if err != nil || count == 0 {
			continue
		}

		if err := control.Click(); err != nil {
			s.logger.Warn("failed to click next page control", "selector", selector, "error", err)
			continue
		}

		s.logger.Debug("advanced to next page", "selector", selector)
		return true, nil
	}

	return false, nil
}
