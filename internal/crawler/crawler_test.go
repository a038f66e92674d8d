package crawler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearhound/gearpage-scraper/internal/models"
)

func resultsPage(links ...string) string {
	page := "<html><body>"
	for _, link := range links {
		page += fmt.Sprintf(`<div class="structItem"><div class="structItem-title"><a href=%q>thread</a></div></div>`, link)
	}
	return page + "</body></html>"
}

const emptyPage = "<html><body><p>No results.</p></body></html>"

// fakeSession scripts one page of markup per element of pages; NextPage
// reports false once the script runs out.
type fakeSession struct {
	pages       []string
	current     int
	nextAfter   int // NextPage returns false once current reaches this 1-based page; 0 means unlimited
	waitErr     error
	submitted   []string
	nextClicks  int
	waitsServed int
}

func (s *fakeSession) SubmitSearch(_ context.Context, query string) error {
	s.submitted = append(s.submitted, query)
	return nil
}

func (s *fakeSession) WaitForResults(_ context.Context) error {
	s.waitsServed++
	return s.waitErr
}

func (s *fakeSession) Content() (string, error) {
	if s.current >= len(s.pages) {
		return emptyPage, nil
	}
	return s.pages[s.current], nil
}

func (s *fakeSession) NextPage(_ context.Context) (bool, error) {
	if s.nextAfter > 0 && s.current+1 >= s.nextAfter {
		return false, nil
	}
	s.nextClicks++
	s.current++
	return true, nil
}

type fakeStore struct {
	batches []*models.PageBatch
	err     error
}

func (s *fakeStore) SaveBatch(batch *models.PageBatch) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.batches = append(s.batches, batch)
	return fmt.Sprintf("batch-%03d.json", batch.Page), nil
}

type fakePublisher struct {
	published []*models.PageBatch
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, batch *models.PageBatch) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, batch)
	return nil
}

func newTestController(session Session, store Store, maxPages int) *Controller {
	return NewController(session, store, maxPages, time.Millisecond)
}

func TestRunStopsOnEmptyPage(t *testing.T) {
	session := &fakeSession{
		pages: []string{
			resultsPage("/board/threads/a.1/", "/board/threads/b.2/"),
			resultsPage("/board/threads/c.3/"),
			emptyPage,
		},
	}
	store := &fakeStore{}

	err := newTestController(session, store, 3).Run(context.Background(), "prs silver sky")
	require.NoError(t, err)

	// Page 3 rendered with zero results: nothing persisted for it.
	require.Len(t, store.batches, 2)
	assert.Equal(t, 2, store.batches[0].ResultCount)
	assert.Equal(t, 1, store.batches[1].ResultCount)
	assert.Equal(t, []string{"prs silver sky"}, session.submitted)
	assert.Equal(t, 2, session.nextClicks)
}

func TestRunStopsAtPageLimit(t *testing.T) {
	session := &fakeSession{
		pages: []string{
			resultsPage("/board/threads/a.1/"),
			resultsPage("/board/threads/b.2/"),
			resultsPage("/board/threads/c.3/"),
		},
	}
	store := &fakeStore{}

	err := newTestController(session, store, 2).Run(context.Background(), "klon centaur")
	require.NoError(t, err)

	require.Len(t, store.batches, 2)
	// The limit is reached before any further navigation is attempted.
	assert.Equal(t, 1, session.nextClicks)
}

func TestRunStopsWhenNextControlMissing(t *testing.T) {
	session := &fakeSession{
		pages:     []string{resultsPage("/board/threads/a.1/")},
		nextAfter: 1,
	}
	store := &fakeStore{}

	err := newTestController(session, store, 5).Run(context.Background(), "jazzmaster")
	require.NoError(t, err)

	require.Len(t, store.batches, 1)
	assert.Equal(t, 1, store.batches[0].Page)
	assert.Equal(t, 0, session.nextClicks)
}

func TestRunInitialWaitFailureIsFatal(t *testing.T) {
	session := &fakeSession{waitErr: fmt.Errorf("%w: results container never appeared", ErrInputNotFound)}
	store := &fakeStore{}

	err := newTestController(session, store, 3).Run(context.Background(), "dumble")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInputNotFound)
	assert.Empty(t, store.batches)
}

func TestRunSaveFailureAborts(t *testing.T) {
	session := &fakeSession{pages: []string{resultsPage("/board/threads/a.1/")}}
	store := &fakeStore{err: errors.New("disk full")}

	err := newTestController(session, store, 3).Run(context.Background(), "ts808")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRunCancellationStopsBeforeNextPage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session := &fakeSession{pages: []string{resultsPage("/board/threads/a.1/")}}
	store := &fakeStore{}

	err := newTestController(session, store, 3).Run(ctx, "princeton reverb")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.batches)
}

func TestRunPublishesBatches(t *testing.T) {
	session := &fakeSession{
		pages:     []string{resultsPage("/board/threads/a.1/")},
		nextAfter: 1,
	}
	store := &fakeStore{}
	publisher := &fakePublisher{}

	controller := newTestController(session, store, 3).WithPublisher(publisher)
	err := controller.Run(context.Background(), "es-335")
	require.NoError(t, err)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, "es-335", publisher.published[0].Query)
}

func TestRunPublishFailureDoesNotAbort(t *testing.T) {
	session := &fakeSession{
		pages:     []string{resultsPage("/board/threads/a.1/")},
		nextAfter: 1,
	}
	store := &fakeStore{}
	publisher := &fakePublisher{err: errors.New("redis down")}

	controller := newTestController(session, store, 3).WithPublisher(publisher)
	err := controller.Run(context.Background(), "es-335")
	require.NoError(t, err)
	require.Len(t, store.batches, 1)
}
