// Package main hosts the pod2aria CLI entrypoint and command graph.
//
// The root command turns a podcast RSS feed (url or local file) into an
// aria2c input file. Subcommands scaffold and validate configuration and
// manage the optional header probe cache. Flags given on the command line
// override the loaded configuration; everything else lives in the internal
// packages and is wired together by internal/workflow.
package main
