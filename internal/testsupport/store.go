package testsupport

import (
	"context"
	"testing"

	"pod2aria/internal/naming"
	"pod2aria/internal/services/headprobe"
)

// MustOpenProbeStore opens a headprobe.Store for tests and registers cleanup.
func MustOpenProbeStore(t testing.TB, path string) *headprobe.Store {
	t.Helper()

	store, err := headprobe.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("headprobe.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedProbe records a probe outcome for rawURL.
func SeedProbe(t testing.TB, store *headprobe.Store, rawURL string, result naming.ProbeResult) {
	t.Helper()

	if err := store.Save(context.Background(), rawURL, &result); err != nil {
		t.Fatalf("store.Save: %v", err)
	}
}
