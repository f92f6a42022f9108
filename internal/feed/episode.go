package feed

import (
	"fmt"
	"strings"
	"time"

	"pod2aria/internal/services"
)

// Episode is one downloadable item taken from the feed.
type Episode struct {
	// Index is the 0-based position of the item in the feed.
	Index     int
	Title     string
	SourceURL string
	// PubDate is the raw pubDate text, kept for error messages.
	PubDate     string
	PublishedAt time.Time
}

// HasDate reports whether the episode carries a usable publication date.
func (e Episode) HasDate() bool {
	return !e.PublishedAt.IsZero()
}

// DateProblem explains why HasDate is false.
func (e Episode) DateProblem() string {
	if e.HasDate() {
		return ""
	}
	if strings.TrimSpace(e.PubDate) == "" {
		return "missing pubDate"
	}
	return fmt.Sprintf("unparsable pubDate %q", e.PubDate)
}

// Feed is the parsed channel.
type Feed struct {
	Title    string
	Episodes []Episode
	// Skipped lists items dropped by a lenient parse.
	Skipped []*ItemError
}

// ItemError describes a single feed item that could not be used.
type ItemError struct {
	Index  int
	Title  string
	Reason string
}

func (e *ItemError) Error() string {
	if e.Title != "" {
		return fmt.Sprintf("item %d (%q): %s", e.Index, e.Title, e.Reason)
	}
	return fmt.Sprintf("item %d: %s", e.Index, e.Reason)
}

// Unwrap lets callers match item failures with errors.Is(err, services.ErrMalformedItem).
func (e *ItemError) Unwrap() error {
	return services.ErrMalformedItem
}
