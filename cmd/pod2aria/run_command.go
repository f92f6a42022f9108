package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"pod2aria/internal/config"
	"pod2aria/internal/logging"
	"pod2aria/internal/services"
	"pod2aria/internal/workflow"
)

type runFlags struct {
	renameMissing    bool
	renameAll        bool
	skipRename       bool
	outputFile       string
	feedCache        string
	refresh          bool
	podcast          string
	podcastFromFeed  bool
	strict           bool
	probeConcurrency int
	report           bool
	logLevel         string
	logFormat        string
}

func runConvert(cmd *cobra.Command, ctx *commandContext, flags *runFlags, source string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg, flags); err != nil {
		return err
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := workflow.NewRunner(cfg,
		workflow.WithLogger(logger),
		workflow.WithRefresh(flags.refresh),
	)
	result, runErr := runner.Run(runCtx, strings.TrimSpace(source))

	out := cmd.OutOrStdout()
	printRunSummary(out, result, flags.report, shouldColorize(out))

	switch {
	case runErr == nil:
		fmt.Fprintln(out, "Download your files with:")
		fmt.Fprintf(out, "\taria2c -i %q\n", result.OutputPath)
		return nil
	case result != nil && result.Interrupted:
		errOut := cmd.ErrOrStderr()
		fmt.Fprintln(errOut, renderStatusLine("Run", statusWarn, "Interrupted by user", shouldColorize(errOut)))
		return context.Canceled
	default:
		return runErr
	}
}

// applyRunFlags copies explicitly set flags over the loaded configuration
// and re-validates the result.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config, flags *runFlags) error {
	fs := cmd.Flags()
	switch {
	case flags.renameMissing:
		cfg.Rename.Mode = "missing"
	case flags.renameAll:
		cfg.Rename.Mode = "all"
	case flags.skipRename:
		cfg.Rename.Mode = "skip"
	}
	if fs.Changed("output-file") {
		cfg.Output.File = strings.TrimSpace(flags.outputFile)
	}
	if fs.Changed("feed-cache") {
		cfg.Output.FeedCache = strings.TrimSpace(flags.feedCache)
	}
	if fs.Changed("podcast") {
		cfg.Rename.Podcast = strings.TrimSpace(flags.podcast)
	}
	if fs.Changed("podcast-from-feed") {
		cfg.Rename.PodcastFromFeed = flags.podcastFromFeed
	}
	if fs.Changed("strict") {
		cfg.Feed.Strict = flags.strict
	}
	if fs.Changed("probe-concurrency") {
		cfg.Probe.Concurrency = flags.probeConcurrency
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = strings.ToLower(strings.TrimSpace(flags.logLevel))
	}
	if fs.Changed("log-format") {
		cfg.Logging.Format = strings.ToLower(strings.TrimSpace(flags.logFormat))
	}
	if err := cfg.Validate(); err != nil {
		return services.Wrap(services.ErrConfiguration, "cli", "apply flags", "", err)
	}
	return nil
}

// newLogger writes to the command's stderr unless a log file is configured,
// in which case lines go to both stderr and the file.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	if strings.TrimSpace(cfg.Logging.File) != "" {
		return logging.NewFromConfig(cfg)
	}
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
}

func printRunSummary(out io.Writer, result *workflow.Result, showRenamed, colorize bool) {
	if result == nil || result.Report == nil {
		fmt.Fprintln(out, "New filenames created: 0")
		return
	}
	report := result.Report
	if showRenamed && len(report.Renamed) > 0 {
		rows := make([][]string, 0, len(report.Renamed))
		for _, renamed := range report.Renamed {
			rows = append(rows, []string{fmt.Sprint(renamed.Index + 1), renamed.Title, renamed.Filename})
		}
		fmt.Fprintln(out, renderTable([]string{"#", "Title", "Filename"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft}))
	}
	if len(report.Skipped) > 0 {
		fmt.Fprintln(out, renderSectionHeader("Skipped episodes", colorize))
		rows := make([][]string, 0, len(report.Skipped))
		for _, skipped := range report.Skipped {
			rows = append(rows, []string{fmt.Sprint(skipped.Index + 1), skipped.Title, skipped.Reason})
		}
		fmt.Fprintln(out, renderTable([]string{"#", "Title", "Reason"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft}))
	}
	if report.ProbeFailures > 0 {
		fmt.Fprintln(out, renderStatusLine("Header probes", statusWarn,
			fmt.Sprintf("%d failed; treated as unnamed", report.ProbeFailures), colorize))
	}
	if report.Collisions > 0 {
		fmt.Fprintln(out, renderStatusLine("Name collisions", statusInfo,
			fmt.Sprintf("%d filenames got a numeric suffix", report.Collisions), colorize))
	}
	fmt.Fprintf(out, "New filenames created: %d\n", report.Created())
}
