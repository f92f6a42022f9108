package naming

import (
	"errors"
	"fmt"
	"net/url"
	"path"

	"pod2aria/internal/feed"
	"pod2aria/internal/services"
	"pod2aria/internal/textutil"
)

const dateLayout = "2006-01-02"

// Synthesize builds the output filename for ep. podcast is optional.
func Synthesize(ep feed.Episode, podcast string) (string, error) {
	if !ep.HasDate() {
		return "", &feed.ItemError{Index: ep.Index, Title: ep.Title, Reason: ep.DateProblem()}
	}
	ext, err := Extension(ep.SourceURL)
	if err != nil {
		return "", fmt.Errorf("%w: item %d: %w", services.ErrMalformedItem, ep.Index, err)
	}

	prefix := textutil.SanitizeTitle(podcast)
	if prefix != "" {
		prefix += " "
	}
	title := textutil.SanitizeTitle(ep.Title)
	return prefix + "[" + ep.PublishedAt.Format(dateLayout) + "] " + title + ext, nil
}

// Extension returns the final extension of the URL path including the
// leading dot, or "" when the last path segment has none. Query and
// fragment never contribute.
func Extension(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse source url: %w", err)
	}
	if parsed.Path == "" {
		return "", errors.New("source url has no path")
	}
	ext := path.Ext(parsed.Path)
	if ext == "." {
		return "", nil
	}
	return ext, nil
}
