// Package main provides the yarrrml-parser binary entry point.
//
// yarrrml-parser compiles YARRRML mapping documents to RML or R2RML
// triples and turns RML/R2RML triples back into YARRRML.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "yarrrml-parser"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		opts     options
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Convert YARRRML to RML or R2RML and back",
		Long: `yarrrml-parser compiles YARRRML mapping documents into RML or R2RML
rules, or converts RML/R2RML rules back into YARRRML.

Several inputs or glob patterns are merged into one document before
compiling. In watch mode the output is rebuilt whenever an input changes.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.inputs = append(opts.inputs, args...)
			return run(cmd.Context(), opts, cmd.OutOrStdout(), newLogger(logLevel))
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&opts.inputs, "input", "i", nil, "Input file or glob pattern (repeatable)")
	f.StringVarP(&opts.output, "output", "o", "", "Output file (default: stdout)")
	f.StringVarP(&opts.format, "format", "f", "", "Output format: RML, R2RML or YAML (default: RML)")
	f.BoolVarP(&opts.watch, "watch", "w", false, "Watch inputs and rebuild on change")
	f.StringVar(&opts.syntax, "syntax", "", "RDF syntax of compiled output: turtle, ntriples, nquads or jsonld")
	f.StringVarP(&opts.configPath, "config", "c", "", "Config file path (default: nearest .yarrrml.yaml)")
	f.BoolVar(&opts.preserveDialect, "preserve-dialect", false, "Write \"dialect: r2rml\" when converting R2RML to YAML")
	f.StringVar(&opts.base, "base", "", "Base IRI for documents that declare none")
	f.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo

	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
