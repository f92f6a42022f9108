package services

import "context"

type contextKey string

const (
	runIDKey        contextKey = "run_id"
	episodeIndexKey contextKey = "episode_index"
	stageKey        contextKey = "stage"
)

// WithRunID annotates context with the run correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run correlation identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithEpisodeIndex annotates context with the 0-based feed position of the
// episode being processed.
func WithEpisodeIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, episodeIndexKey, index)
}

// EpisodeIndexFromContext extracts the episode index if present.
func EpisodeIndexFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(episodeIndexKey).(int)
	return v, ok
}

// WithStage annotates context with the run stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
