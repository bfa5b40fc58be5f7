package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fruitsalade/dfm/internal/config"
	"github.com/fruitsalade/dfm/internal/logging"
	"github.com/fruitsalade/dfm/internal/source"
	"github.com/fruitsalade/dfm/pkg/retry"
)

var (
	cfg *config.Config

	flagSource    string
	flagLogLevel  string
	flagLogFormat string
)

var rootCmd = &cobra.Command{
	Use:           "dfm",
	Short:         "dfm explores virtual directory trees described by XML documents",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		flags := cmd.Flags()
		if flags.Changed("source") {
			c.Source = flagSource
		}
		if flags.Changed("log-level") {
			c.LogLevel = flagLogLevel
		}
		if flags.Changed("log-format") {
			c.LogFormat = flagLogFormat
		}

		// Logs go to stderr so listings on stdout stay clean.
		if err := logging.Init(logging.Config{
			Level:      c.LogLevel,
			Format:     c.LogFormat,
			OutputPath: "stderr",
		}); err != nil {
			return fmt.Errorf("logging init error: %w", err)
		}
		cfg = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagSource, "source", "", "document location: URL, s3://bucket/key or local path (env DFM_SOURCE)")
	pf.StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error (env LOG_LEVEL)")
	pf.StringVar(&flagLogFormat, "log-format", "json", "log format: json or console (env LOG_FORMAT)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		errorf("%v", err)
		os.Exit(1)
	}
}

func sourceOptions(c *config.Config) source.Options {
	return source.Options{
		Timeout: c.FetchTimeout,
		Retry:   retry.DefaultConfig(),
		S3: source.S3Config{
			Endpoint:  c.S3Endpoint,
			Region:    c.S3Region,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
		},
	}
}

func newLoader(c *config.Config) *source.Loader {
	return source.NewDefaultLoader(sourceOptions(c), source.LoaderOptions{
		CacheTTL:     c.CacheTTL,
		FetchTimeout: c.FetchTimeout,
	})
}

// loadDocument validates the configuration and loads the configured source.
func loadDocument(ctx context.Context) (*source.Loader, *source.Document, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	loader := newLoader(cfg)
	doc, err := loader.Load(ctx, cfg.Source, false)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", cfg.Source, err)
	}
	return loader, doc, nil
}

// watchSource reloads via onChange whenever the configured local document
// changes. Remote sources cannot be watched and are skipped with a warning.
func watchSource(ctx context.Context, loader *source.Loader, onChange func()) {
	src, err := loader.Source(ctx, cfg.Source)
	if err != nil {
		logging.Warn("cannot watch source", logging.Err(err))
		return
	}
	file, ok := src.(*source.FileSource)
	if !ok {
		logging.Warn("source watching needs a local file", logging.String("type", src.Type()))
		return
	}
	if err := source.Watch(ctx, file.Path(), source.DefaultDebounce, onChange); err != nil {
		logging.Warn("cannot watch source", logging.String("path", file.Path()), logging.Err(err))
		return
	}
	logging.Info("watching source", logging.String("path", file.Path()))
}
