package naming

import (
	"fmt"
	"strings"
)

// Policy selects when episodes receive a synthesized filename.
type Policy int

const (
	// MissingOnly renames only when the server does not advertise a filename.
	MissingOnly Policy = iota
	// All renames every episode.
	All
	// Skip never renames.
	Skip
)

// ParsePolicy maps a config or flag value onto a Policy.
func ParsePolicy(value string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "missing", "missing-only", "missing_only":
		return MissingOnly, nil
	case "all":
		return All, nil
	case "skip", "none":
		return Skip, nil
	default:
		return MissingOnly, fmt.Errorf("unknown rename policy %q", value)
	}
}

func (p Policy) String() string {
	switch p {
	case All:
		return "all"
	case Skip:
		return "skip"
	default:
		return "missing"
	}
}

// NeedsProbe reports whether the policy consults the origin server.
func (p Policy) NeedsProbe() bool {
	return p == MissingOnly
}

// ProbeResult is what a header probe learned about an episode's URL.
type ProbeResult struct {
	// HasNamedAttachment is true when Content-Disposition carries a filename.
	HasNamedAttachment bool
	// Filename is the advertised name, informational only.
	Filename string
}

// ShouldRename decides whether an episode gets a synthesized name. A nil
// probe means the probe failed or was not attempted.
func ShouldRename(policy Policy, probe *ProbeResult) bool {
	switch policy {
	case Skip:
		return false
	case All:
		return true
	default:
		return probe == nil || !probe.HasNamedAttachment
	}
}
