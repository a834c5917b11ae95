// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package cli implements the cardsearch command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cardsearch/internal/card"
	"cardsearch/internal/config"
	"cardsearch/internal/core"
	"cardsearch/internal/formatters"
	"cardsearch/internal/help"
	"cardsearch/internal/observability"
	"cardsearch/internal/paths"
	"cardsearch/internal/scanner"
	"cardsearch/internal/sink"
	"cardsearch/internal/suppressions"
	"cardsearch/internal/version"
	"cardsearch/internal/walker"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// options holds the raw flag values. A flag only takes effect over the
// configuration file when it was given explicitly.
type options struct {
	configFile   string
	profile      string
	listProfiles bool
	listSchemes  bool

	output               string
	syslog               bool
	quiet                bool
	noExtensions         []string
	chunkSize            int
	excludePaths         []string
	excludeMarker        string
	contextChars         int
	workers              int
	throttleEvery        int
	throttleSleep        time.Duration
	throttleUnit         string
	extractDocuments     bool
	report               string
	format               string
	reportContext        bool
	showMatch            bool
	suppressionFile      string
	generateSuppressions bool
	noColor              bool
	debug                bool
}

// App is one invocation of the command with its streams.
type App struct {
	Stdout io.Writer
	Stderr io.Writer
	Fs     afero.Fs
}

// Execute runs the command with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := &App{Stdout: stdout, Stderr: stderr, Fs: afero.NewOsFs()}
	return app.Execute(ctx, args)
}

// Execute runs the command with args and returns the process exit code.
func (a *App) Execute(ctx context.Context, args []string) int {
	cmd := a.NewRootCommand()
	cmd.SetArgs(args)
	return a.exitCode(ctx, cmd.ExecuteContext(ctx))
}

func (a *App) exitCode(ctx context.Context, err error) int {
	if err == nil {
		return ExitOK
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(a.Stderr, "Error: %v\nRun 'cardsearch --help' for usage.\n", usageErr.Err)
		return ExitUsage
	}

	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		fmt.Fprintln(a.Stderr, "Interrupted")
		return ExitInterrupted
	}

	fmt.Fprintf(a.Stderr, "Error: %v\n", err)
	return ExitFailure
}

// NewRootCommand builds the cobra command tree.
func (a *App) NewRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "cardsearch [flags] <root>...",
		Short: "Find payment card numbers stored on disk",
		Long: `cardsearch walks the given files and directories, finds digit runs that look
like payment card numbers, checks them against issuer numbering rules and the
Luhn checksum, and reports every confirmed number.

Matches are printed to the console as they are found. With --output, every file
with matches is summarised in an aggregate log; with --report, a structured
json, yaml, csv, sarif or junit report is written at the end of the run.`,
		Example:       help.Examples,
		Version:       version.Info(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !opts.listProfiles && !opts.listSchemes {
				return usageErrorf("at least one root path is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, opts, args)
		},
	}

	cmd.SetOut(a.Stdout)
	cmd.SetErr(a.Stderr)
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	f := cmd.Flags()
	f.SortFlags = false
	f.StringVarP(&opts.output, "output", "o", "", "aggregate log file (truncated at start, never scanned)")
	f.BoolVarP(&opts.syslog, "syslog", "s", false, "also send per-file summaries to syslog")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "print per-file counts instead of every match; only errors on stderr")
	f.StringSliceVarP(&opts.noExtensions, "noextensions", "e", nil, "comma-separated file extensions to skip")
	f.IntVarP(&opts.chunkSize, "chunksize", "c", config.DefaultChunkSize, "read chunk size in bytes")
	f.StringArrayVar(&opts.excludePaths, "exclude-path", nil, "path to skip; may be repeated")
	f.StringVar(&opts.excludeMarker, "exclude-marker", "", "ignore numbers immediately preceded by this text")
	f.IntVar(&opts.contextChars, "context", config.DefaultContextChars, "bytes of context shown on each side of a match")
	f.IntVarP(&opts.workers, "workers", "w", config.DefaultWorkers, "files scanned in parallel")
	f.IntVar(&opts.throttleEvery, "throttle-every", 0, "pause after this many throttle units (0 disables)")
	f.DurationVar(&opts.throttleSleep, "throttle-sleep", 0, "length of each throttle pause")
	f.StringVar(&opts.throttleUnit, "throttle-unit", config.DefaultThrottleUnit, "throttle unit: chunks or lines")
	f.BoolVar(&opts.extractDocuments, "extract-documents", false, "also scan text extracted from PDFs and image EXIF data")
	f.StringVar(&opts.report, "report", "", "write a structured report to this file")
	f.StringVar(&opts.format, "format", config.DefaultFormat, "report format: "+strings.Join(formatters.List(), ", "))
	f.BoolVar(&opts.reportContext, "report-context", false, "include context snippets in the report")
	f.BoolVar(&opts.showMatch, "show-match", false, "include full card numbers in the report (masked otherwise)")
	f.StringVar(&opts.suppressionFile, "suppression-file", "", "suppression rules file (default: "+paths.GetSuppressionsFile()+")")
	f.BoolVar(&opts.generateSuppressions, "generate-suppressions", false, "write a disabled suppression rule for every finding")
	f.StringVar(&opts.configFile, "config", "", "YAML configuration file")
	f.StringVar(&opts.profile, "profile", "", "configuration profile to apply")
	f.BoolVar(&opts.listProfiles, "list-profiles", false, "list configuration profiles and exit")
	f.BoolVar(&opts.listSchemes, "list-schemes", false, "list supported card schemes and exit")
	f.BoolVar(&opts.noColor, "no-color", false, "disable coloured output")
	f.BoolVar(&opts.debug, "debug", false, "enable debug diagnostics")

	return cmd
}

func (a *App) run(cmd *cobra.Command, opts *options, roots []string) error {
	cfg, err := loadConfig(opts.configFile)
	if err != nil {
		return &UsageError{Err: err}
	}

	if opts.listProfiles {
		help.NewSystem(a.Stdout, opts.noColor || !isTerminal(a.Stdout)).ShowProfiles(cfg)
		return nil
	}
	if opts.listSchemes {
		help.NewSystem(a.Stdout, opts.noColor || !isTerminal(a.Stdout)).ShowSchemes(card.DefaultRules())
		return nil
	}

	settings, err := cfg.Resolve(opts.profile)
	if err != nil {
		return &UsageError{Err: err}
	}
	opts.applyTo(cmd.Flags().Changed, &settings)

	logger := observability.NewLogger(observability.LoggerOptions{
		Writer:  a.Stderr,
		Level:   observability.ResolveLevel(settings.Debug, settings.Quiet),
		NoColor: settings.NoColor || !isTerminal(a.Stderr),
	})
	observerLevel := observability.ObservabilityMetrics
	if logger.GetLevel() == zerolog.DebugLevel {
		observerLevel = observability.ObservabilityDebug
	}
	observer := observability.NewStandardObserver(observerLevel, logger)

	runCfg, err := a.buildRunConfig(settings, roots)
	if err != nil {
		return err
	}
	runCfg.Observer = observer
	runCfg.GenerateSuppressions = opts.generateSuppressions

	sm := suppressions.NewSuppressionManager(settings.SuppressionFile)
	if err := sm.LoadError(); err != nil {
		logger.Warn().Err(err).Str("file", sm.GetConfigPath()).Msg("ignoring unusable suppression file")
	}
	runCfg.Suppressions = sm

	sinks, err := core.BuildSinks(core.SinkConfig{
		Fs:     a.Fs,
		Output: settings.Output,
		Syslog: settings.Syslog,
		Console: sink.ConsoleOptions{
			Writer:  a.Stdout,
			Quiet:   settings.Quiet,
			NoColor: settings.NoColor,
		},
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Error().Err(err).Msg("cannot close sinks")
		}
	}()

	logger.Debug().
		Fields(version.Fields()).
		Strs("roots", runCfg.Roots).
		Strs("excluded_paths", runCfg.Whitelist.Paths()).
		Strs("excluded_extensions", runCfg.Whitelist.Extensions()).
		Int("chunk_size", runCfg.Options.ChunkSize).
		Int("workers", runCfg.Workers).
		Msg("starting scan")

	summary, err := core.Run(cmd.Context(), runCfg, sinks)
	if summary != nil {
		logger.Info().
			Int("files", summary.FilesScanned).
			Int("files_with_matches", summary.FilesWithMatches).
			Int("matches", summary.Matches).
			Int("suppressed", summary.Suppressed).
			Int("unreadable_files", summary.FilesFailed).
			Int("unreadable_dirs", summary.DirErrors).
			Dur("duration", summary.Duration).
			Msg("scan complete")
	}
	return err
}

// loadConfig loads an explicitly named configuration file, failing when it
// cannot be used, or else the first one found in the standard locations.
func loadConfig(configFile string) (*config.Config, error) {
	if configFile != "" {
		return config.LoadConfig(configFile)
	}
	return config.LoadConfigOrDefault(""), nil
}

// applyTo overrides settings with every flag given on the command line.
// List flags extend the configured lists.
func (o *options) applyTo(changed func(name string) bool, s *config.Settings) {
	if changed("output") {
		s.Output = o.output
	}
	if changed("syslog") {
		s.Syslog = o.syslog
	}
	if changed("quiet") {
		s.Quiet = o.quiet
	}
	if changed("noextensions") {
		s.NoExtensions = append(s.NoExtensions, o.noExtensions...)
	}
	if changed("chunksize") {
		s.ChunkSize = o.chunkSize
	}
	if changed("exclude-path") {
		s.ExcludePaths = append(s.ExcludePaths, o.excludePaths...)
	}
	if changed("exclude-marker") {
		s.ExcludeMarker = o.excludeMarker
	}
	if changed("context") {
		s.ContextChars = o.contextChars
	}
	if changed("workers") {
		s.Workers = o.workers
	}
	if changed("throttle-every") {
		s.Throttle.Every = o.throttleEvery
	}
	if changed("throttle-sleep") {
		s.Throttle.Sleep = o.throttleSleep
	}
	if changed("throttle-unit") {
		s.Throttle.Unit = o.throttleUnit
	}
	if changed("extract-documents") {
		s.ExtractDocuments = o.extractDocuments
	}
	if changed("report") {
		s.Report = o.report
	}
	if changed("format") {
		s.Format = o.format
	}
	if changed("report-context") {
		s.ReportContext = o.reportContext
	}
	if changed("show-match") {
		s.ShowMatch = o.showMatch
	}
	if changed("suppression-file") {
		s.SuppressionFile = o.suppressionFile
	}
	if changed("no-color") {
		s.NoColor = o.noColor
	}
	if changed("debug") {
		s.Debug = o.debug
	}
}

// buildRunConfig turns resolved settings into the immutable run
// configuration, rejecting values the scan cannot start with.
func (a *App) buildRunConfig(s config.Settings, roots []string) (core.Config, error) {
	output, err := paths.ResolvePath(s.Output)
	if err != nil {
		return core.Config{}, usageErrorf("invalid output path: %v", err)
	}
	report, err := paths.ResolvePath(s.Report)
	if err != nil {
		return core.Config{}, usageErrorf("invalid report path: %v", err)
	}

	uniqueRoots, err := walker.UniqueRoots(roots)
	if err != nil {
		return core.Config{}, usageErrorf("invalid root: %v", err)
	}

	// the run's own output files are never scanned
	excluded := append([]string{output, report}, s.ExcludePaths...)
	whitelist, err := walker.DefaultWhitelist(excluded, s.NoExtensions)
	if err != nil {
		return core.Config{}, usageErrorf("invalid exclude path: %v", err)
	}

	unit, err := scanner.ParseThrottleUnit(s.Throttle.Unit)
	if err != nil {
		return core.Config{}, &UsageError{Err: err}
	}
	scanOpts := scanner.Options{
		ChunkSize:       s.ChunkSize,
		ExclusionMarker: s.ExcludeMarker,
		ContextChars:    s.ContextChars,
		Throttle: scanner.Throttle{
			Every: s.Throttle.Every,
			Sleep: s.Throttle.Sleep,
			Unit:  unit,
		},
	}
	if err := scanOpts.Validate(); err != nil {
		return core.Config{}, &UsageError{Err: err}
	}

	if s.Workers < 0 {
		return core.Config{}, usageErrorf("workers must not be negative, got %d", s.Workers)
	}

	format := strings.ToLower(strings.TrimSpace(s.Format))
	if format == "" {
		format = config.DefaultFormat
	}
	if _, ok := formatters.Get(format); !ok {
		return core.Config{}, usageErrorf("unsupported format '%s'. Available formats: %s", s.Format, strings.Join(formatters.List(), ", "))
	}

	return core.Config{
		Roots:            uniqueRoots,
		Fs:               a.Fs,
		Options:          scanOpts,
		Whitelist:        whitelist,
		Workers:          s.Workers,
		ExtractDocuments: s.ExtractDocuments,
		Report: core.ReportConfig{
			Path:      report,
			Format:    format,
			ShowMatch: s.ShowMatch,
			Verbose:   s.ReportContext,
		},
	}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
