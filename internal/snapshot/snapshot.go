// Package snapshot recovers a post record from the plaintext rendering
// served by the degraded-content proxy. The rendering format is not
// contractually stable, so every field independently degrades to null
// instead of failing the whole record.
package snapshot

import (
	"strings"

	"github.com/gearhound/gearpage-scraper/internal/models"
)

const (
	titleMarker     = "Title:"
	publishedMarker = "Published Time:"
	authorMarker    = "#### ["
	postMarker      = "[#1]"
	shareMarker     = "Share:"
)

type state int

const (
	seekHeader state = iota
	seekContentStart
	seekContentEnd
	done
)

// Parse scans the trimmed lines of a proxy rendering and recovers
// best-effort title, author, timestamp and content fields for url.
func Parse(url, text string) *models.PostRecord {
	rec := &models.PostRecord{URL: url}

	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	st := seekHeader
	authorIdx := -1

	for i := 0; i < len(lines) && st == seekHeader; i++ {
		line := lines[i]
		switch {
		case rec.Title == nil && strings.HasPrefix(line, titleMarker):
			rec.Title = models.Text(strings.TrimSpace(strings.TrimPrefix(line, titleMarker)))
		case rec.PostedOn == nil && strings.HasPrefix(line, publishedMarker):
			rec.PostedOn = models.Text(strings.TrimSpace(strings.TrimPrefix(line, publishedMarker)))
		case strings.HasPrefix(line, authorMarker):
			rec.Author = bracketedName(line)
			authorIdx = i
			st = seekContentStart
		}
	}

	if st == seekHeader {
		// No author block anywhere: author and content stay null.
		return rec
	}

	// Content starts two lines past the first-post marker; when the marker
	// is missing it starts at the author block itself.
	start := authorIdx
	for i := authorIdx; i < len(lines); i++ {
		if strings.Contains(lines[i], postMarker) {
			start = i + 2
			break
		}
	}
	st = seekContentEnd

	// The share line ends the content even when the body is empty; a new
	// author block only ends it past the start, since the degraded
	// fallback starts content on the anchor heading itself.
	var content []string
	for i := start; i < len(lines) && st == seekContentEnd; i++ {
		line := lines[i]
		if strings.HasPrefix(line, shareMarker) || (i > start && strings.HasPrefix(line, authorMarker)) {
			st = done
			break
		}
		content = append(content, line)
	}

	rec.Content = models.Text(strings.TrimSpace(strings.Join(content, "\n")))
	return rec
}

// bracketedName extracts the poster name from a heading shaped like
// "#### [name](profile-url)".
func bracketedName(line string) *string {
	rest := strings.TrimPrefix(line, authorMarker)
	end := strings.Index(rest, "]")
	if end < 0 {
		return nil
	}
	return models.Text(strings.TrimSpace(rest[:end]))
}
