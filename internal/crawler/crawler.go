package crawler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gearhound/gearpage-scraper/internal/extract"
	"github.com/gearhound/gearpage-scraper/internal/models"
)

// ErrInputNotFound marks a required page element (search box, results
// container) that never appeared within the wait budget. It aborts the run.
var ErrInputNotFound = errors.New("required page element not found")

// Session is the navigation surface the controller drives. The Playwright
// implementation lives in this package; tests substitute a fake.
type Session interface {
	SubmitSearch(ctx context.Context, query string) error
	WaitForResults(ctx context.Context) error
	Content() (string, error)
	NextPage(ctx context.Context) (bool, error)
}

// Store persists one batch and returns where it was written.
type Store interface {
	SaveBatch(batch *models.PageBatch) (string, error)
}

// Publisher forwards a persisted batch to downstream consumers. Publish
// failures never abort the run.
type Publisher interface {
	Publish(ctx context.Context, batch *models.PageBatch) error
}

type Controller struct {
	session   Session
	extractor *extract.Extractor
	store     Store
	publisher Publisher
	maxPages  int
	delay     time.Duration
	logger    *slog.Logger
}

func NewController(session Session, store Store, maxPages int, delay time.Duration) *Controller {
	return &Controller{
		session:   session,
		extractor: extract.New(),
		store:     store,
		maxPages:  maxPages,
		delay:     delay,
		logger:    slog.Default().With("component", "crawler"),
	}
}

// WithPublisher attaches an optional downstream batch publisher.
func (c *Controller) WithPublisher(p Publisher) *Controller {
	c.publisher = p
	return c
}

// Run submits the search and walks result pages until the page limit, an
// empty page, or a missing next-page control ends the loop. Each page is
// fully extracted and persisted before the next navigation; prior batches
// are left intact on failure.
func (c *Controller) Run(ctx context.Context, query string) error {
	c.logger.Info("starting search crawl", "query", query, "max_pages", c.maxPages)

	if err := c.session.SubmitSearch(ctx, query); err != nil {
		return err
	}
	if err := c.session.WaitForResults(ctx); err != nil {
		return err
	}

	for page := 1; page <= c.maxPages; page++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Navigation re-renders the container, so the wait is re-asserted
		// every page. A wait failure here is a render failure, distinct
		// from a page that rendered with zero results.
		if err := c.session.WaitForResults(ctx); err != nil {
			return err
		}

		html, err := c.session.Content()
		if err != nil {
			return err
		}

		records, err := c.extractor.Extract(html)
		if err != nil {
			return err
		}

		if len(records) == 0 {
			c.logger.Info("no results found, stopping", "page", page)
			return nil
		}

		batch := models.NewPageBatch(query, page, records)
		path, err := c.store.SaveBatch(batch)
		if err != nil {
			return err
		}
		c.logger.Info("saved results page", "page", page, "results", batch.ResultCount, "path", path)

		if c.publisher != nil {
			if err := c.publisher.Publish(ctx, batch); err != nil {
				c.logger.Error("failed to publish batch", "page", page, "error", err)
			}
		}

		if page == c.maxPages {
			c.logger.Info("reached requested page limit", "pages", page)
			return nil
		}

		hasNext, err := c.session.NextPage(ctx)
		if err != nil {
			return err
		}
		if !hasNext {
			c.logger.Info("no additional pages detected, crawl complete", "pages", page)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.delay):
		}
	}

	return nil
}
