package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/rss"
	"golang.org/x/net/html/charset"

	"pod2aria/internal/logging"
	"pod2aria/internal/services"
)

// pubDateLayouts accept the RFC 2822 shapes seen in podcast feeds: named or
// numeric zone, with or without a zero-padded day.
var pubDateLayouts = []string{
	time.RFC1123,
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05 -0700",
}

// Options configures Parse.
type Options struct {
	// Strict aborts on the first malformed item instead of skipping it.
	Strict bool
	Logger *slog.Logger
}

// Parse reads an RSS document and returns its channel/item entries in
// document order.
func Parse(raw []byte, opts Options) (*Feed, error) {
	logger := logging.NewComponentLogger(opts.Logger, "feed")

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, services.Wrap(services.ErrFeedParse, "feed", "parse", "empty document", nil)
	}

	shape, err := scanDocument(raw)
	if err != nil {
		return nil, services.Wrap(services.ErrFeedParse, "feed", "parse", "", err)
	}
	if shape.channels == 0 {
		return nil, services.Wrap(services.ErrFeedParse, "feed", "parse", "no channel element", nil)
	}
	if shape.channels > 1 {
		return nil, services.Wrap(services.ErrFeedParse, "feed", "parse", "more than one channel element", nil)
	}

	parser := &rss.Parser{}
	doc, err := parser.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, services.Wrap(services.ErrFeedParse, "feed", "parse", "", err)
	}
	if doc == nil || len(doc.Items) < shape.channelItems {
		return nil, services.Wrap(services.ErrFeedParse, "feed", "parse", "channel items could not be read", nil)
	}
	if shape.strayItems > 0 {
		logging.WarnWithContext(logger, "ignoring items outside the channel", "feed_stray_items",
			logging.Int("ignored", shape.strayItems),
			logging.String(logging.FieldErrorHint, "move the items inside <channel>"),
			logging.String(logging.FieldImpact, "those items are omitted from the url list"),
		)
	}

	result := &Feed{Title: strings.TrimSpace(doc.Title)}
	// The rss parser lists channel items first and appends root-level items
	// after them.
	for idx, item := range doc.Items[:shape.channelItems] {
		episode, itemErr := episodeFromItem(idx, item)
		if itemErr != nil {
			if opts.Strict {
				return nil, itemErr
			}
			logging.WarnWithContext(logger, "skipping malformed feed item", "feed_item_skipped",
				logging.Int(logging.FieldEpisodeIndex, idx),
				logging.String("title", itemErr.Title),
				logging.String("reason", itemErr.Reason),
				logging.String(logging.FieldErrorHint, "check the item in the feed source"),
				logging.String(logging.FieldImpact, "item omitted from the url list"),
			)
			result.Skipped = append(result.Skipped, itemErr)
			continue
		}
		result.Episodes = append(result.Episodes, episode)
	}

	logger.Debug("feed parsed",
		logging.String("feed_title", result.Title),
		logging.Int(logging.FieldEpisodeCount, len(result.Episodes)),
		logging.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// rssNamespaces are the namespaces the rss parser treats as core elements.
var rssNamespaces = map[string]struct{}{
	"":                                            {},
	"http://purl.org/rss/1.0/":                    {},
	"http://www.w3.org/1999/02/22-rdf-syntax-ns#": {},
	"http://purl.org/rss/1.0/modules/content/":    {},
}

// documentShape counts the elements Parse relies on.
type documentShape struct {
	channels     int
	channelItems int
	// strayItems are <item> elements that are children of the root rather
	// than of the channel.
	strayItems int
}

// scanDocument checks that raw is a single well-formed XML document and
// records where its items sit. The rss parser recovers from broken markup
// and reads items outside the channel, so it cannot do either check.
func scanDocument(raw []byte) (documentShape, error) {
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	decoder.CharsetReader = charset.NewReaderLabel

	var shape documentShape
	var stack []string
	roots := 0
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return shape, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := strings.ToLower(t.Name.Local)
			// Elements from extension namespaces are skipped by the rss parser.
			if _, ok := rssNamespaces[t.Name.Space]; !ok {
				name = t.Name.Space + ":" + name
			}
			switch len(stack) {
			case 0:
				roots++
				if roots > 1 {
					return shape, errors.New("content after the root element")
				}
			case 1:
				switch name {
				case "channel":
					shape.channels++
				case "item":
					shape.strayItems++
				}
			case 2:
				if name == "item" && stack[1] == "channel" && shape.channels == 1 {
					shape.channelItems++
				}
			}
			stack = append(stack, name)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 && len(bytes.TrimSpace(t)) > 0 {
				return shape, errors.New("text outside the root element")
			}
		}
	}
	if roots == 0 {
		return shape, errors.New("no root element")
	}
	return shape, nil
}

func episodeFromItem(idx int, item *rss.Item) (Episode, *ItemError) {
	if item == nil {
		return Episode{}, &ItemError{Index: idx, Reason: "empty item"}
	}
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return Episode{}, &ItemError{Index: idx, Reason: "missing title"}
	}
	if item.Enclosure == nil {
		return Episode{}, &ItemError{Index: idx, Title: title, Reason: "missing enclosure"}
	}
	source := strings.TrimSpace(item.Enclosure.URL)
	if source == "" {
		return Episode{}, &ItemError{Index: idx, Title: title, Reason: "enclosure has no url attribute"}
	}
	if err := validateSourceURL(source); err != nil {
		return Episode{}, &ItemError{Index: idx, Title: title, Reason: err.Error()}
	}

	episode := Episode{
		Index:     idx,
		Title:     title,
		SourceURL: source,
		PubDate:   strings.TrimSpace(item.PubDate),
	}
	if episode.PubDate != "" {
		if published, err := ParsePubDate(episode.PubDate); err == nil {
			episode.PublishedAt = published
		}
	}
	return episode, nil
}

func validateSourceURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return errors.New("enclosure url does not parse")
	}
	if parsed.Scheme == "" {
		return errors.New("enclosure url is not absolute")
	}
	if parsed.Path == "" {
		return errors.New("enclosure url has no path")
	}
	return nil
}

// ParsePubDate parses an RSS pubDate value. The wall clock is kept as
// written; no conversion to local time or UTC happens.
func ParsePubDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var firstErr error
	for _, layout := range pubDateLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
