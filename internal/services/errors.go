package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidSource = errors.New("invalid feed source")
	ErrFeedFetch     = errors.New("feed fetch error")
	ErrFeedParse     = errors.New("feed parse error")
	ErrMalformedItem = errors.New("malformed feed item")
	ErrProbe         = errors.New("header probe error")
	ErrOutputWrite   = errors.New("output write error")
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrFeedFetch
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Recoverable reports whether a run may continue after err. Only probe
// failures are recovered in place; everything else ends the run.
func Recoverable(err error) bool {
	return err != nil && errors.Is(err, ErrProbe)
}

// UserMessage returns the one-line explanation printed when a run aborts.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidSource):
		return "Error: RSS feed is not a valid url or existing file"
	case errors.Is(err, ErrFeedFetch):
		return "Error: Failed to get an rss feed from the provided source"
	case errors.Is(err, ErrFeedParse):
		return "Error: Failed to parse the rss feed"
	case errors.Is(err, ErrMalformedItem):
		return "Error: The feed contains a malformed item"
	case errors.Is(err, ErrOutputWrite):
		return "Error: Failed to write the output file"
	case errors.Is(err, ErrConfiguration):
		return "Error: Invalid configuration"
	default:
		return "Error: " + err.Error()
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
