package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// RSSItem renders one <item>. Empty fields are left out so callers can build
// malformed items.
func RSSItem(title, enclosureURL, pubDate string) string {
	var b strings.Builder
	b.WriteString("<item>")
	if title != "" {
		b.WriteString("<title>" + title + "</title>")
	}
	if enclosureURL != "" {
		b.WriteString(`<enclosure url="` + enclosureURL + `" type="audio/mpeg" length="1"/>`)
	}
	if pubDate != "" {
		b.WriteString("<pubDate>" + pubDate + "</pubDate>")
	}
	b.WriteString("</item>")
	return b.String()
}

// RSSFeed wraps items in an RSS 2.0 channel titled channelTitle.
func RSSFeed(channelTitle string, items ...string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<rss version="2.0"><channel><title>` + channelTitle + `</title>`)
	for _, item := range items {
		b.WriteString(item)
	}
	b.WriteString("</channel></rss>\n")
	return []byte(b.String())
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ReadFile returns the contents of path as a string.
func ReadFile(t testing.TB, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// AssertNotExist fails the test when path exists.
func AssertNotExist(t testing.TB, path string) {
	t.Helper()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be absent, stat err=%v", path, err)
	}
}
