package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aktagon/inbox-sorter/internal/classify"
	"github.com/aktagon/inbox-sorter/internal/config"
	"github.com/aktagon/inbox-sorter/internal/content"
	"github.com/aktagon/inbox-sorter/internal/logging"
	"github.com/aktagon/inbox-sorter/internal/pipeline"
)

type rootOptions struct {
	configFile          string
	systemPromptPath    string
	websitePromptPath   string
	instagramPromptPath string
	documentPromptPath  string
	imagePromptPath     string
	debugMode           bool

	loaded *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "inbox-sorter",
		Short:         "Classify, process and file pending inbox records",
		Long:          `Takes one record at a time from a pending inbox, classifies it, extracts its content and files it with normalized properties.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "Path to settings file (default .inbox-sorter/settings.yaml)")
	flags.StringVar(&opts.systemPromptPath, "system-prompt", "", "Path to custom summarizer system prompt")
	flags.StringVar(&opts.websitePromptPath, "website-prompt", "", "Path to custom website prompt")
	flags.StringVar(&opts.instagramPromptPath, "instagram-prompt", "", "Path to custom Instagram prompt")
	flags.StringVar(&opts.documentPromptPath, "document-prompt", "", "Path to custom document prompt")
	flags.StringVar(&opts.imagePromptPath, "image-prompt", "", "Path to custom image prompt")
	flags.BoolVar(&opts.debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newRunCmd(opts), newWatchCmd(opts), newClassifyCmd())
	return rootCmd
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process the next pending record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.app(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()
			return runOnce(cmd.Context(), app.Orchestrator, cmd.OutOrStdout())
		},
	}
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var schedule string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Process pending records on a cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := opts.app(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			lockPath := filepath.Join(opts.configDir(), "watch.lock")
			lock := flock.New(lockPath)
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !ok {
				return fmt.Errorf("another watcher holds %s", lockPath)
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					app.Logger.Warn("Failed to release watch lock", logging.Err(err))
				}
			}()

			if schedule == "" {
				schedule = opts.loaded.Settings.Schedule
			}
			scheduler, err := pipeline.NewScheduler(schedule, app.Orchestrator, app.Logger)
			if err != nil {
				return err
			}
			return scheduler.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron expression overriding the settings file")
	return cmd
}

func newClassifyCmd() *cobra.Command {
	var rec content.SourceRecord
	var fileURL string
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Print the label a record would get, without processing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fileURL != "" {
				rec.File = &content.FileRef{URL: fileURL, Name: path.Base(fileURL)}
			}
			result := classify.New().Explain(rec)
			fmt.Fprintf(cmd.OutOrStdout(), "%s (rule: %s)\n", result.Label, result.Rule)
			return nil
		},
	}
	cmd.Flags().StringVar(&rec.Link, "link", "", "Record link")
	cmd.Flags().StringVar(&rec.DisplayName, "name", "", "Record display name; wrap in quotes for inline text")
	cmd.Flags().StringVar(&fileURL, "file", "", "Attached file URL or name")
	return cmd
}

// runOnce performs one pipeline run and prints its outcome.
func runOnce(ctx context.Context, runner pipeline.Runner, out io.Writer) error {
	report, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	if report.State == pipeline.StateSkipped {
		fmt.Fprintln(out, "no pending records")
		return nil
	}
	fmt.Fprintf(out, "committed %s (%s)\n", report.RecordID, report.Label)
	return nil
}

// configDir is the directory holding the settings file in use.
func (o *rootOptions) configDir() string {
	if o.configFile != "" {
		return filepath.Dir(o.configFile)
	}
	return config.Dir
}

func (o *rootOptions) overrides() *config.ConfigOverrides {
	overrides := &config.ConfigOverrides{}
	set := func(dst **string, v string) {
		if v != "" {
			*dst = &v
		}
	}
	set(&overrides.SettingsPath, o.configFile)
	set(&overrides.SystemPromptPath, o.systemPromptPath)
	set(&overrides.WebsitePromptPath, o.websitePromptPath)
	set(&overrides.InstagramPromptPath, o.instagramPromptPath)
	set(&overrides.DocumentPromptPath, o.documentPromptPath)
	set(&overrides.ImagePromptPath, o.imagePromptPath)
	return overrides
}

// app loads .env and settings, builds the logger and wires the pipeline.
func (o *rootOptions) app(ctx context.Context) (*App, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if o.configFile == "" {
		if err := config.EnsureConfigExists(config.Dir); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(o.overrides())
	if err != nil {
		return nil, err
	}
	o.loaded = cfg

	logCfg := cfg.Settings.Log
	if o.debugMode {
		logCfg.Level = "debug"
		logCfg.Development = true
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, err
	}

	return NewApp(ctx, cfg, logger)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
