package services_test

import (
	"errors"
	"strings"
	"testing"

	"pod2aria/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrFeedFetch, "feed", "get", "status 502", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrFeedFetch) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"feed", "get", "status 502"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(services.ErrOutputWrite, "", "", "", nil)
	if !errors.Is(err, services.ErrOutputWrite) {
		t.Fatalf("expected output marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestRecoverableOnlyForProbeErrors(t *testing.T) {
	probeErr := services.Wrap(services.ErrProbe, "probe", "head", "timeout", errors.New("deadline"))
	if !services.Recoverable(probeErr) {
		t.Fatal("expected probe error to be recoverable")
	}
	parseErr := services.Wrap(services.ErrFeedParse, "feed", "parse", "", nil)
	if services.Recoverable(parseErr) {
		t.Fatal("expected parse error to abort the run")
	}
	if services.Recoverable(nil) {
		t.Fatal("nil error must not be recoverable")
	}
}

func TestUserMessage(t *testing.T) {
	cases := map[error]string{
		services.ErrInvalidSource: "not a valid url or existing file",
		services.ErrFeedParse:     "Failed to parse",
		services.ErrOutputWrite:   "output file",
	}
	for marker, fragment := range cases {
		err := services.Wrap(marker, "stage", "op", "", nil)
		if msg := services.UserMessage(err); !strings.Contains(msg, fragment) {
			t.Fatalf("UserMessage(%v) = %q, want fragment %q", err, msg, fragment)
		}
	}
	if services.UserMessage(nil) != "" {
		t.Fatal("expected empty message for nil error")
	}
}
