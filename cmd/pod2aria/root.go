package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var flags runFlags

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "pod2aria <feed-url-or-file>",
		Short: "Turn a podcast RSS feed into an aria2c input file",
		Long: `pod2aria reads a podcast RSS feed and writes one line per episode for
aria2c -i, optionally naming each download "[YYYY-MM-DD] Title.ext".`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, ctx, &flags, args[0])
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log format (console, json)")

	fs := rootCmd.Flags()
	fs.BoolVarP(&flags.renameMissing, "rename-missing", "m", false, "Rename only episodes whose server sends no filename (default)")
	fs.BoolVarP(&flags.renameAll, "rename-all", "a", false, "Rename every episode")
	fs.BoolVarP(&flags.skipRename, "skip-rename", "s", false, "Never rename; emit bare urls")
	fs.StringVarP(&flags.outputFile, "output-file", "o", "", "Where to write the aria2c input file (default \"urls.txt\")")
	fs.StringVar(&flags.feedCache, "feed-cache", "", "Where to save a fetched feed; empty disables (default \"feed.xml\")")
	fs.BoolVar(&flags.refresh, "refresh", false, "Fetch the feed even when a cached copy exists")
	fs.StringVarP(&flags.podcast, "podcast", "t", "", "Prefix synthesized filenames with this podcast name")
	fs.BoolVar(&flags.podcastFromFeed, "podcast-from-feed", false, "Prefix synthesized filenames with the channel title")
	fs.BoolVar(&flags.strict, "strict", false, "Abort on the first malformed feed item")
	fs.IntVarP(&flags.probeConcurrency, "probe-concurrency", "j", 0, "Parallel header probes (1-32)")
	fs.BoolVar(&flags.report, "report", false, "Print a table of synthesized filenames")
	rootCmd.MarkFlagsMutuallyExclusive("rename-missing", "rename-all", "skip-rename")

	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newCacheCommand(ctx))

	return rootCmd
}
