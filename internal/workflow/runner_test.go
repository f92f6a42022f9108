package workflow_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"pod2aria/internal/config"
	"pod2aria/internal/naming"
	"pod2aria/internal/services"
	"pod2aria/internal/testsupport"
	"pod2aria/internal/workflow"
)

const twoItemFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>My Show</title>
    <item>
      <title>Ep 1</title>
      <enclosure url="https://x/a.mp3" type="audio/mpeg" length="1"/>
      <pubDate>Thu, 05 Jan 2023 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Ep: Two</title>
      <enclosure url="https://x/b.mp3" type="audio/mpeg" length="1"/>
      <pubDate>Thu, 05 Jan 2023 12:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

type staticFetcher struct {
	data []byte
	err  error
}

func (f staticFetcher) Fetch(context.Context, string) ([]byte, error) {
	return f.data, f.err
}

type probeFunc func(ctx context.Context, rawURL string) (*naming.ProbeResult, error)

func (p probeFunc) Probe(ctx context.Context, rawURL string) (*naming.ProbeResult, error) {
	return p(ctx, rawURL)
}

func testConfig(t *testing.T, mode string, opts ...testsupport.ConfigOption) *config.Config {
	t.Helper()
	return testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithRenameMode(mode)}, opts...)...)
}

func readOutput(t *testing.T, cfg *config.Config) string {
	t.Helper()
	return testsupport.ReadFile(t, cfg.Output.File)
}

func TestRunRenameAllWritesDirectives(t *testing.T) {
	cfg := testConfig(t, "all")
	runner := workflow.NewRunner(cfg, workflow.WithFetcher(staticFetcher{data: []byte(twoItemFeed)}))

	result, err := runner.Run(context.Background(), "feed.xml")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	want := "https://x/a.mp3\n out=[2023-01-05] Ep 1.mp3\nhttps://x/b.mp3\n out=[2023-01-05] Ep - Two.mp3\n"
	if got := readOutput(t, cfg); got != want {
		t.Fatalf("unexpected output:\n%q\nwant:\n%q", got, want)
	}
	if !result.Written || result.Interrupted {
		t.Fatalf("unexpected result flags %+v", result)
	}
	if result.Report.Created() != 2 {
		t.Fatalf("expected 2 created names, got %d", result.Report.Created())
	}
	if result.RunID == "" {
		t.Fatal("expected run id")
	}
	if result.FeedTitle != "My Show" {
		t.Fatalf("unexpected feed title %q", result.FeedTitle)
	}
}

func TestRunMissingOnlyProbesOrigin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/named.mp3" {
			w.Header().Set("Content-Disposition", `attachment; filename="named.mp3"`)
		}
	}))
	defer server.Close()

	feedXML := strings.NewReplacer("https://x/a.mp3", server.URL+"/named.mp3", "https://x/b.mp3", server.URL+"/1.mp3").Replace(twoItemFeed)
	cfg := testConfig(t, "missing", testsupport.WithProbeCache())

	result, err := workflow.NewRunner(cfg, workflow.WithFetcher(staticFetcher{data: []byte(feedXML)})).
		Run(context.Background(), "feed.xml")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	want := server.URL + "/named.mp3\n" + server.URL + "/1.mp3\n out=[2023-01-05] Ep - Two.mp3\n"
	if got := readOutput(t, cfg); got != want {
		t.Fatalf("unexpected output:\n%q\nwant:\n%q", got, want)
	}
	if result.Report.Created() != 1 {
		t.Fatalf("expected 1 created name, got %d", result.Report.Created())
	}
	if _, err := os.Stat(cfg.ProbeCache.Path); err != nil {
		t.Fatalf("expected probe cache database: %v", err)
	}
}

func TestRunUnreachableProbeStillRenames(t *testing.T) {
	cfg := testConfig(t, "missing")
	failing := probeFunc(func(context.Context, string) (*naming.ProbeResult, error) {
		return nil, errors.New("no route to host")
	})

	result, err := workflow.NewRunner(cfg,
		workflow.WithFetcher(staticFetcher{data: []byte(twoItemFeed)}),
		workflow.WithProber(failing),
	).Run(context.Background(), "feed.xml")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Report.ProbeFailures != 2 || result.Report.Created() != 2 {
		t.Fatalf("unexpected report %+v", result.Report)
	}
}

func TestRunPodcastPrefix(t *testing.T) {
	cfg := testConfig(t, "all")
	cfg.Rename.PodcastFromFeed = true

	if _, err := workflow.NewRunner(cfg, workflow.WithFetcher(staticFetcher{data: []byte(twoItemFeed)})).
		Run(context.Background(), "feed.xml"); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := readOutput(t, cfg); !strings.Contains(got, " out=My Show [2023-01-05] Ep 1.mp3\n") {
		t.Fatalf("expected feed title prefix, got %q", got)
	}

	cfg.Rename.Podcast = "Explicit"
	if _, err := workflow.NewRunner(cfg, workflow.WithFetcher(staticFetcher{data: []byte(twoItemFeed)})).
		Run(context.Background(), "feed.xml"); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := readOutput(t, cfg); !strings.Contains(got, " out=Explicit [2023-01-05] Ep 1.mp3\n") {
		t.Fatalf("expected explicit prefix to win, got %q", got)
	}
}

func TestRunMalformedFeedWritesNothing(t *testing.T) {
	cfg := testConfig(t, "all")
	result, err := workflow.NewRunner(cfg, workflow.WithFetcher(staticFetcher{data: []byte("<rss><channel>")})).
		Run(context.Background(), "feed.xml")
	if !errors.Is(err, services.ErrFeedParse) {
		t.Fatalf("expected ErrFeedParse, got %v", err)
	}
	if result.Written {
		t.Fatal("output must not be written for a malformed feed")
	}
	testsupport.AssertNotExist(t, cfg.Output.File)
}

func TestRunFetchFailureWritesNothing(t *testing.T) {
	cfg := testConfig(t, "skip")
	fetchErr := services.Wrap(services.ErrInvalidSource, "fetch", "resolve source", "nope", nil)
	_, err := workflow.NewRunner(cfg, workflow.WithFetcher(staticFetcher{err: fetchErr})).
		Run(context.Background(), "nope")
	if !errors.Is(err, services.ErrInvalidSource) {
		t.Fatalf("expected ErrInvalidSource, got %v", err)
	}
	testsupport.AssertNotExist(t, cfg.Output.File)
}

func TestRunStrictMissingDateWritesNothing(t *testing.T) {
	undated := strings.Replace(twoItemFeed, "<pubDate>Thu, 05 Jan 2023 12:00:00 GMT</pubDate>", "", 1)

	cfg := testConfig(t, "all", testsupport.WithStrict())
	_, err := workflow.NewRunner(cfg, workflow.WithFetcher(staticFetcher{data: []byte(undated)})).
		Run(context.Background(), "feed.xml")
	if !errors.Is(err, services.ErrMalformedItem) {
		t.Fatalf("expected ErrMalformedItem, got %v", err)
	}
	testsupport.AssertNotExist(t, cfg.Output.File)

	lenient := testConfig(t, "all")
	result, err := workflow.NewRunner(lenient, workflow.WithFetcher(staticFetcher{data: []byte(undated)})).
		Run(context.Background(), "feed.xml")
	if err != nil {
		t.Fatalf("lenient run returned error: %v", err)
	}
	if got := readOutput(t, lenient); got != "https://x/a.mp3\n out=[2023-01-05] Ep 1.mp3\n" {
		t.Fatalf("unexpected lenient output %q", got)
	}
	if len(result.Report.Skipped) != 1 {
		t.Fatalf("expected one skipped episode, got %+v", result.Report.Skipped)
	}
}

func TestRunInterruptedWritesCommittedPrefix(t *testing.T) {
	cfg := testConfig(t, "missing")
	cfg.Probe.Concurrency = 1
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var once sync.Once
	prober := probeFunc(func(pctx context.Context, rawURL string) (*naming.ProbeResult, error) {
		if rawURL == "https://x/a.mp3" {
			return &naming.ProbeResult{HasNamedAttachment: true}, nil
		}
		once.Do(cancel)
		<-pctx.Done()
		return nil, pctx.Err()
	})

	result, err := workflow.NewRunner(cfg,
		workflow.WithFetcher(staticFetcher{data: []byte(twoItemFeed)}),
		workflow.WithProber(prober),
	).Run(ctx, "feed.xml")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !result.Interrupted || !result.Written {
		t.Fatalf("expected interrupted run to write its prefix, got %+v", result)
	}
	got := readOutput(t, cfg)
	if got != "" && got != "https://x/a.mp3\n" {
		t.Fatalf("unexpected interrupted output %q", got)
	}
	if strings.Contains(got, "b.mp3") {
		t.Fatal("uncommitted episode leaked into output")
	}
}

func TestRunPreflightFailure(t *testing.T) {
	cfg := testConfig(t, "all")
	cfg.Output.File = filepath.Join(t.TempDir(), "missing", "urls.txt")
	fetched := false
	fetcher := fetcherFunc(func(context.Context, string) ([]byte, error) {
		fetched = true
		return []byte(twoItemFeed), nil
	})

	_, err := workflow.NewRunner(cfg, workflow.WithFetcher(fetcher)).Run(context.Background(), "feed.xml")
	if !errors.Is(err, services.ErrOutputWrite) {
		t.Fatalf("expected ErrOutputWrite, got %v", err)
	}
	if fetched {
		t.Fatal("feed must not be fetched when preflight fails")
	}
}

func TestRunRejectsUnknownPolicy(t *testing.T) {
	cfg := testConfig(t, "sometimes")
	_, err := workflow.NewRunner(cfg, workflow.WithFetcher(staticFetcher{data: []byte(twoItemFeed)})).
		Run(context.Background(), "feed.xml")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestRunUsesConfiguredFetcherWithLocalFile(t *testing.T) {
	cfg := testConfig(t, "skip")
	feedPath := filepath.Join(filepath.Dir(cfg.Output.File), "local.xml")
	testsupport.WriteFile(t, feedPath, []byte(twoItemFeed))

	if _, err := workflow.NewRunner(cfg).Run(context.Background(), feedPath); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := readOutput(t, cfg); got != "https://x/a.mp3\nhttps://x/b.mp3\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

type fetcherFunc func(ctx context.Context, source string) ([]byte, error)

func (f fetcherFunc) Fetch(ctx context.Context, source string) ([]byte, error) {
	return f(ctx, source)
}

func TestRunReusesCachedProbeResults(t *testing.T) {
	cfg := testConfig(t, "missing", testsupport.WithProbeCache())
	store := testsupport.MustOpenProbeStore(t, cfg.ProbeCache.Path)
	testsupport.SeedProbe(t, store, "https://x/a.mp3", naming.ProbeResult{HasNamedAttachment: true, Filename: "a.mp3"})
	testsupport.SeedProbe(t, store, "https://x/b.mp3", naming.ProbeResult{})

	// Both urls are unroutable, so any network probe would be counted as a failure.
	result, err := workflow.NewRunner(cfg, workflow.WithFetcher(staticFetcher{data: []byte(twoItemFeed)})).
		Run(context.Background(), "feed.xml")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Report.ProbeFailures != 0 {
		t.Fatalf("expected cached outcomes to be used, got %d probe failures", result.Report.ProbeFailures)
	}
	want := "https://x/a.mp3\nhttps://x/b.mp3\n out=[2023-01-05] Ep - Two.mp3\n"
	if got := readOutput(t, cfg); got != want {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRunRemoteFeedIsCached(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write(testsupport.RSSFeed("Remote Show",
			testsupport.RSSItem("Ep 1", "https://x/a.mp3", "Thu, 05 Jan 2023 10:00:00 GMT"),
		))
	}))
	defer server.Close()

	cfg := testConfig(t, "all", testsupport.WithFeedCache())
	for range 2 {
		result, err := workflow.NewRunner(cfg).Run(context.Background(), server.URL+"/feed.rss")
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		if result.FeedTitle != "Remote Show" {
			t.Fatalf("unexpected feed title %q", result.FeedTitle)
		}
	}
	if requests.Load() != 1 {
		t.Fatalf("expected the cached feed to be reused, server saw %d requests", requests.Load())
	}
	if got := testsupport.ReadFile(t, cfg.Output.FeedCache); !strings.Contains(got, "Remote Show") {
		t.Fatalf("unexpected feed cache contents %q", got)
	}

	if _, err := workflow.NewRunner(cfg, workflow.WithRefresh(true)).Run(context.Background(), server.URL+"/feed.rss"); err != nil {
		t.Fatalf("refresh run returned error: %v", err)
	}
	if requests.Load() != 2 {
		t.Fatalf("expected refresh to refetch, server saw %d requests", requests.Load())
	}
}

func TestRunInterruptedDuringFetch(t *testing.T) {
	cfg := testConfig(t, "all")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := fetcherFunc(func(fctx context.Context, source string) ([]byte, error) {
		cancel()
		<-fctx.Done()
		return nil, services.Wrap(services.ErrFeedFetch, "fetch", "download", source, fctx.Err())
	})

	result, err := workflow.NewRunner(cfg, workflow.WithFetcher(fetcher)).Run(ctx, "https://example.com/feed.rss")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in the chain, got %v", err)
	}
	if !result.Interrupted {
		t.Fatal("expected an interrupt during fetch to mark the result interrupted")
	}
	if result.Written {
		t.Fatal("nothing should be written when the feed never arrived")
	}
	testsupport.AssertNotExist(t, cfg.Output.File)
}

func TestRunFetchFailureIsNotAnInterrupt(t *testing.T) {
	cfg := testConfig(t, "all")
	fetchErr := services.Wrap(services.ErrFeedFetch, "fetch", "download", "status 500", nil)
	result, err := workflow.NewRunner(cfg, workflow.WithFetcher(staticFetcher{err: fetchErr})).
		Run(context.Background(), "https://example.com/feed.rss")
	if !errors.Is(err, services.ErrFeedFetch) {
		t.Fatalf("expected ErrFeedFetch, got %v", err)
	}
	if result.Interrupted {
		t.Fatal("a plain fetch failure must not be reported as an interrupt")
	}
}
