package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const structItemHTML = `
<div class="structItem">
  <div class="structItem-title"><a href="/board/threads/prs-silver-sky-review.123/">PRS Silver Sky review</a></div>
  <div class="structItem-snippet">Played one at the shop   today.</div>
  <a class="username" href="/board/members/fred.1/">fred</a>
  <time datetime="2024-03-01T12:00:00-0500">Mar 1, 2024</time>
</div>
<div class="structItem">
  <div class="structItem-title"><a href="https://www.thegearpage.net/board/threads/ssky-pickups.456/">Silver Sky pickups</a></div>
  <div class="structItem-minor">Pickup height thread</div>
</div>
<div class="structItem">
  <div class="structItem-title">Title without a link anchor</div>
</div>`

const contentRowHTML = `
<div class="contentRow">
  <div class="contentRow-title"><a href="/board/threads/prs-silver-sky-review.123/">PRS Silver Sky review</a></div>
  <div class="contentRow-snippet">duplicate of the struct item result</div>
  <div class="contentRow-extra"><span>ghost</span></div>
</div>
<div class="contentRow">
  <div class="contentRow-title"><a href="/board/threads/maple-board.789/">Maple board club</a></div>
  <div class="contentRow-snippet">Rosewood or maple?</div>
  <div class="contentRow-extra"><span>jane</span></div>
  <time datetime="2024-02-10T08:30:00-0500">Feb 10</time>
</div>
<div class="contentRow">
  <div class="contentRow-snippet">row missing the title anchor</div>
</div>`

const blockRowHTML = `
<li class="block-row">
  <a href="/board/threads/nos-tubes.555/">NOS tube stash</a>
  <div class="listHeap">fallback layout snippet</div>
</li>`

func TestExtractDedupAcrossStrategies(t *testing.T) {
	e := New()

	records, err := e.Extract("<html><body>" + structItemHTML + contentRowHTML + "</body></html>")
	require.NoError(t, err)
	require.Len(t, records, 3)

	// The duplicate link surfaces once, from the higher priority strategy.
	assert.Equal(t, "https://www.thegearpage.net/board/threads/prs-silver-sky-review.123/", records[0].Link)
	require.NotNil(t, records[0].Author)
	assert.Equal(t, "fred", *records[0].Author)
	require.NotNil(t, records[0].Snippet)
	assert.Equal(t, "Played one at the shop today.", *records[0].Snippet)

	assert.Equal(t, "https://www.thegearpage.net/board/threads/ssky-pickups.456/", records[1].Link)
	assert.Equal(t, "https://www.thegearpage.net/board/threads/maple-board.789/", records[2].Link)
	require.NotNil(t, records[2].Author)
	assert.Equal(t, "jane", *records[2].Author)
}

func TestExtractOrderIsFirstSeen(t *testing.T) {
	e := New()

	records, err := e.Extract("<html><body>" + contentRowHTML + blockRowHTML + structItemHTML + "</body></html>")
	require.NoError(t, err)
	require.Len(t, records, 4)

	// Strategy priority decides order, not document order: both struct
	// items come first even though their markup appears last.
	assert.Equal(t, "https://www.thegearpage.net/board/threads/prs-silver-sky-review.123/", records[0].Link)
	assert.Equal(t, "https://www.thegearpage.net/board/threads/ssky-pickups.456/", records[1].Link)
	assert.Equal(t, "https://www.thegearpage.net/board/threads/maple-board.789/", records[2].Link)
	assert.Equal(t, "https://www.thegearpage.net/board/threads/nos-tubes.555/", records[3].Link)
}

func TestExtractFieldDegradation(t *testing.T) {
	e := New()

	records, err := e.Extract(structItemHTML)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Second card has no author or timestamp; those degrade to null.
	assert.Nil(t, records[1].Author)
	assert.Nil(t, records[1].Posted)
	require.NotNil(t, records[1].Title)
	assert.Equal(t, "Silver Sky pickups", *records[1].Title)
	require.NotNil(t, records[1].Snippet)
	assert.Equal(t, "Pickup height thread", *records[1].Snippet)

	require.NotNil(t, records[0].Posted)
	assert.Equal(t, "2024-03-01T12:00:00-0500", *records[0].Posted)
}

func TestExtractBlockRowFallback(t *testing.T) {
	e := New()

	records, err := e.Extract(blockRowHTML)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "https://www.thegearpage.net/board/threads/nos-tubes.555/", records[0].Link)
	assert.Nil(t, records[0].Author)
	require.NotNil(t, records[0].Snippet)
	assert.Equal(t, "fallback layout snippet", *records[0].Snippet)
}

func TestExtractEmptyPageIsNotAnError(t *testing.T) {
	e := New()

	records, err := e.Extract(`<html><body><p>No results matched your search.</p></body></html>`)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExtractSkipsCandidatesWithoutAnchor(t *testing.T) {
	e := New()

	html := `<div class="structItem"><div class="structItem-title">no anchor here</div></div>
<div class="contentRow"><div class="contentRow-snippet">still no anchor</div></div>`
	records, err := e.Extract(html)
	require.NoError(t, err)
	assert.Empty(t, records)
}
