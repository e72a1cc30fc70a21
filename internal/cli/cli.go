// Package cli provides the command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/abcdump/internal/config"
	"github.com/temirov/abcdump/internal/output"
	"github.com/temirov/abcdump/internal/services/clipboard"
	"github.com/temirov/abcdump/internal/services/watch"
	"github.com/temirov/abcdump/internal/types"
	"github.com/temirov/abcdump/internal/utils"
)

const (
	formatFlagName   = "format"
	colorFlagName    = "color"
	indentFlagName   = "indent"
	timesFlagName    = "times"
	summaryFlagName  = "summary"
	copyFlagName     = "copy"
	watchFlagName    = "watch"
	configFlagName   = "config"
	logLevelFlagName = "log-level"
	versionFlagName  = "version"
	globalFlagName   = "global"
	forceFlagName    = "force"

	versionTemplate      = utils.ApplicationName + " version: %s\n"
	rootUse              = "abcdump <archive>"
	rootShortDescription = "dump the contents of a scene archive"
	rootLongDescription  = `abcdump opens a scene archive and prints its object hierarchy
with transform, polygon mesh and point cloud samples.
Use --format to select raw, json, or xml output and --watch to re-dump the archive whenever it changes.`
	rootUsageExample = `  # Print an archive as indented text
  abcdump scene.h5

  # Render the object tree as JSON without time sampling tables
  abcdump --format json --times=false scene.yaml

  # Re-dump on every save and copy each dump to the clipboard
  abcdump --watch --copy scene.yaml`

	formatFlagDescription   = "output format (raw, json, xml)"
	colorFlagDescription    = "colorize raw output (auto, always, never)"
	indentFlagDescription   = "spaces per depth level in raw output"
	timesFlagDescription    = "include time sampling tables"
	summaryFlagDescription  = "include summary of dumped objects"
	copyFlagDescription     = "copy the rendered dump to the clipboard"
	watchFlagDescription    = "re-dump the archive whenever it changes"
	configFlagDescription   = "configuration file to use instead of ./" + utils.LocalConfigFileName
	logLevelFlagDescription = "log level (debug, info, warn, error)"
	versionFlagDescription  = "display application version"

	negativeIndentMessage   = "indent must not be negative, got %d"
	loadConfigurationFormat = "load configuration: %w"
	copyFailedFormat        = "copy dump to clipboard: %w"
)

// ErrArchivesDiffer is returned by the diff command when the dumps are not identical.
var ErrArchivesDiffer = errors.New("archives differ")

// application carries the collaborators shared by every command.
type application struct {
	stdout      io.Writer
	stderr      io.Writer
	copier      clipboard.Copier
	loadOptions config.LoadOptions
	newLogger   func(level string) (*zap.Logger, error)

	logger        *zap.Logger
	configuration config.ApplicationConfiguration
}

// rootFlags holds the values bound to the root command flags.
type rootFlags struct {
	format      string
	color       string
	indent      int
	times       bool
	summary     bool
	copy        bool
	watch       bool
	configPath  string
	logLevel    string
	showVersion bool
}

// dumpSettings is the configuration of one dump after defaults, configuration files and flags are merged.
type dumpSettings struct {
	format   string
	color    string
	indent   int
	times    bool
	summary  bool
	copy     bool
	watch    bool
	debounce time.Duration
}

func defaultDumpSettings() dumpSettings {
	return dumpSettings{
		format:   types.FormatRaw,
		color:    types.ColorAuto,
		indent:   output.DefaultIndentWidth,
		times:    true,
		debounce: watch.DefaultDebounce,
	}
}

func (settings dumpSettings) rendererOptions(colorEnabled bool) output.RendererOptions {
	return output.RendererOptions{
		Format:         settings.format,
		IndentWidth:    settings.indent,
		IncludeSummary: settings.summary,
		Color:          colorEnabled,
	}
}

// Execute runs the abcdump application.
func Execute() error {
	app := &application{
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		copier:    clipboard.NewService(),
		newLogger: utils.NewApplicationLogger,
	}
	rootCommand := app.createRootCommand()
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(context.Background())
}

// createRootCommand builds the root Cobra command.
func (app *application) createRootCommand() *cobra.Command {
	flags := &rootFlags{}

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Example:       rootUsageExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(command *cobra.Command, arguments []string) error {
			if flags.showVersion {
				return nil
			}
			return cobra.ExactArgs(1)(command, arguments)
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return app.prepare(command, flags)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			if flags.showVersion {
				_, err := fmt.Fprintf(app.stdout, versionTemplate, utils.GetApplicationVersion())
				return err
			}
			settings, err := resolveDumpSettings(command, app.configuration.Dump, flags)
			if err != nil {
				return err
			}
			if settings.watch {
				return app.watchArchive(command.Context(), arguments[0], settings)
			}
			return app.dumpArchive(command.Context(), arguments[0], settings)
		},
	}
	rootCommand.SetOut(app.stdout)
	rootCommand.SetErr(app.stderr)

	rootCommand.PersistentFlags().StringVar(&flags.configPath, configFlagName, "", configFlagDescription)
	rootCommand.PersistentFlags().StringVar(&flags.logLevel, logLevelFlagName, utils.DefaultLogLevel, logLevelFlagDescription)

	rootCommand.Flags().StringVar(&flags.format, formatFlagName, types.FormatRaw, formatFlagDescription)
	rootCommand.Flags().StringVar(&flags.color, colorFlagName, types.ColorAuto, colorFlagDescription)
	rootCommand.Flags().IntVar(&flags.indent, indentFlagName, output.DefaultIndentWidth, indentFlagDescription)
	registerBooleanFlag(rootCommand.Flags(), &flags.times, timesFlagName, true, timesFlagDescription)
	registerBooleanFlag(rootCommand.Flags(), &flags.summary, summaryFlagName, false, summaryFlagDescription)
	registerBooleanFlag(rootCommand.Flags(), &flags.copy, copyFlagName, false, copyFlagDescription)
	registerBooleanFlag(rootCommand.Flags(), &flags.watch, watchFlagName, false, watchFlagDescription)
	rootCommand.Flags().BoolVar(&flags.showVersion, versionFlagName, false, versionFlagDescription)

	rootCommand.AddCommand(
		app.createConvertCommand(),
		app.createDiffCommand(),
		app.createInitCommand(flags),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// prepare loads the configuration files and builds the logger used by every command.
func (app *application) prepare(command *cobra.Command, flags *rootFlags) error {
	loadOptions := app.loadOptions
	if flags.configPath != "" {
		loadOptions.ExplicitFilePath = flags.configPath
	}
	configuration, err := config.LoadApplicationConfiguration(loadOptions)
	if err != nil {
		return fmt.Errorf(loadConfigurationFormat, err)
	}
	app.configuration = configuration
	return app.buildLogger(command, flags)
}

func (app *application) buildLogger(command *cobra.Command, flags *rootFlags) error {
	level := app.configuration.Logging.Level
	if command.Flags().Changed(logLevelFlagName) || level == "" {
		level = flags.logLevel
	}
	newLogger := app.newLogger
	if newLogger == nil {
		newLogger = utils.NewApplicationLogger
	}
	logger, err := newLogger(level)
	if err != nil {
		return err
	}
	app.logger = logger
	return nil
}

// resolveDumpSettings applies configuration values over the defaults and then every flag set on the command line.
func resolveDumpSettings(command *cobra.Command, configuration config.DumpConfiguration, flags *rootFlags) (dumpSettings, error) {
	settings := defaultDumpSettings()

	if configuration.Format != "" {
		settings.format = configuration.Format
	}
	if configuration.Color != "" {
		settings.color = configuration.Color
	}
	if configuration.Indent != nil {
		settings.indent = *configuration.Indent
	}
	if configuration.Times != nil {
		settings.times = *configuration.Times
	}
	if configuration.Summary != nil {
		settings.summary = *configuration.Summary
	}
	if configuration.Clipboard != nil {
		settings.copy = *configuration.Clipboard
	}
	if configuration.Watch.DebounceMilliseconds != nil && *configuration.Watch.DebounceMilliseconds > 0 {
		settings.debounce = time.Duration(*configuration.Watch.DebounceMilliseconds) * time.Millisecond
	}

	changed := command.Flags().Changed
	if changed(formatFlagName) {
		settings.format = flags.format
	}
	if changed(colorFlagName) {
		settings.color = flags.color
	}
	if changed(indentFlagName) {
		settings.indent = flags.indent
	}
	if changed(timesFlagName) {
		settings.times = flags.times
	}
	if changed(summaryFlagName) {
		settings.summary = flags.summary
	}
	if changed(copyFlagName) {
		settings.copy = flags.copy
	}
	if changed(watchFlagName) {
		settings.watch = flags.watch
	}

	settings.format = strings.ToLower(strings.TrimSpace(settings.format))
	settings.color = strings.ToLower(strings.TrimSpace(settings.color))
	if settings.indent < 0 {
		return dumpSettings{}, fmt.Errorf(negativeIndentMessage, settings.indent)
	}
	return settings, nil
}
