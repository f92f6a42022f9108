package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"pod2aria/internal/services/headprobe"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the header probe cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show probe cache usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			store, err := openProbeCache(cmd.Context(), ctx, out)
			if err != nil || store == nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			printCacheStats(out, stats)
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached probe result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			store, err := openProbeCache(cmd.Context(), ctx, out)
			if err != nil || store == nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			if removed == 0 {
				fmt.Fprintln(out, "Probe cache already empty")
				return nil
			}
			fmt.Fprintf(out, "Removed %d cached probe results\n", removed)
			return nil
		},
	}
}

// openProbeCache returns nil without error when the cache file has never
// been created, so inspecting a fresh install does not create one.
func openProbeCache(ctx context.Context, cmdCtx *commandContext, out io.Writer) (*headprobe.Store, error) {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return nil, err
	}
	path := cfg.ProbeCache.Path
	if !cfg.ProbeCache.Enabled {
		fmt.Fprintln(out, renderStatusLine("Probe cache", statusInfo, "disabled in config ([probe_cache] enabled = false)", shouldColorize(out)))
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(out, "No probe cache at %s\n", path)
			return nil, nil
		}
		return nil, fmt.Errorf("stat probe cache: %w", err)
	}
	return headprobe.Open(ctx, path)
}

func printCacheStats(out io.Writer, stats headprobe.Stats) {
	const stampLayout = "2006-01-02 15:04"
	oldest, newest := "-", "-"
	if !stats.Oldest.IsZero() {
		oldest = stats.Oldest.Local().Format(stampLayout)
	}
	if !stats.Newest.IsZero() {
		newest = stats.Newest.Local().Format(stampLayout)
	}
	rows := [][]string{
		{"Path", stats.Path},
		{"Entries", fmt.Sprint(stats.Entries)},
		{"Named attachments", fmt.Sprint(stats.Named)},
		{"Oldest check", oldest},
		{"Newest check", newest},
	}
	fmt.Fprintln(out, renderTable([]string{"Probe cache", "Value"}, rows, nil))
}
