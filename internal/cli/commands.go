package cli

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/abcdump/internal/abc/h5archive"
	"github.com/temirov/abcdump/internal/config"
	"github.com/temirov/abcdump/internal/types"
)

const (
	convertUse              = "convert <input> <output.h5>"
	convertShortDescription = "write an archive in the HDF5 layout"
	convertLongDescription  = `Open any supported archive and write its hierarchy, schemas and samples
to an HDF5 file that abcdump can read back.`
	convertUsageExample = `  # Convert a YAML scene description to HDF5
  abcdump convert scene.yaml scene.h5`

	diffUse              = "diff <a> <b>"
	diffShortDescription = "compare the dumps of two archives"
	diffLongDescription  = `Render both archives as uncolored raw text and print a line diff.
Removed lines start with '-', added lines with '+'. The command fails when the dumps differ.`
	diffUsageExample = `  # Compare an archive before and after conversion
  abcdump diff scene.yaml scene.h5`

	initUse              = "init"
	initShortDescription = "write the default configuration file"
	initLongDescription  = `Write the default configuration to ./.abcdump.yaml, or to the
global configuration file with --global. Existing files are kept unless --force is given.`

	globalFlagDescription = "write the global configuration file"
	forceFlagDescription  = "overwrite an existing configuration file"

	convertedTemplate   = "Converted %s to %s\n"
	initializedTemplate = "Wrote configuration to %s\n"
	diffHeaderTemplate  = "--- %s\n+++ %s\n"

	diffRemovedPrefix   = "-"
	diffAddedPrefix     = "+"
	diffUnchangedPrefix = " "
)

// createConvertCommand returns the convert subcommand.
func (app *application) createConvertCommand() *cobra.Command {
	return &cobra.Command{
		Use:     convertUse,
		Short:   convertShortDescription,
		Long:    convertLongDescription,
		Example: convertUsageExample,
		Args:    cobra.ExactArgs(2),
		RunE: func(command *cobra.Command, arguments []string) error {
			inputPath, outputPath := arguments[0], arguments[1]
			opened, err := app.openArchive(inputPath)
			if err != nil {
				return err
			}
			defer func() { _ = opened.Close() }()
			if err := h5archive.Write(outputPath, opened); err != nil {
				return err
			}
			app.logger.Debug("archive converted", zap.String("input", inputPath), zap.String("output", outputPath))
			_, err = fmt.Fprintf(app.stdout, convertedTemplate, inputPath, outputPath)
			return err
		},
	}
}

// createDiffCommand returns the diff subcommand.
func (app *application) createDiffCommand() *cobra.Command {
	return &cobra.Command{
		Use:     diffUse,
		Short:   diffShortDescription,
		Long:    diffLongDescription,
		Example: diffUsageExample,
		Args:    cobra.ExactArgs(2),
		RunE: func(command *cobra.Command, arguments []string) error {
			settings, err := resolveDumpSettings(command, app.configuration.Dump, &rootFlags{})
			if err != nil {
				return err
			}
			settings.format = types.FormatRaw
			left, err := app.renderRaw(command.Context(), arguments[0], settings)
			if err != nil {
				return err
			}
			right, err := app.renderRaw(command.Context(), arguments[1], settings)
			if err != nil {
				return err
			}
			rendered, differ := diffLines(left, right)
			if !differ {
				return nil
			}
			if _, err := fmt.Fprintf(app.stdout, diffHeaderTemplate, arguments[0], arguments[1]); err != nil {
				return err
			}
			if _, err := fmt.Fprint(app.stdout, rendered); err != nil {
				return err
			}
			return ErrArchivesDiffer
		},
	}
}

// diffLines renders a line diff of left and right and reports whether any line changed.
func diffLines(left, right string) (string, bool) {
	matcher := diffmatchpatch.New()
	leftChars, rightChars, lines := matcher.DiffLinesToChars(left, right)
	diffs := matcher.DiffCharsToLines(matcher.DiffMain(leftChars, rightChars, false), lines)

	var builder strings.Builder
	differ := false
	for _, diff := range diffs {
		prefix := diffUnchangedPrefix
		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			prefix = diffRemovedPrefix
			differ = true
		case diffmatchpatch.DiffInsert:
			prefix = diffAddedPrefix
			differ = true
		}
		for _, line := range splitLines(diff.Text) {
			builder.WriteString(prefix)
			builder.WriteString(line)
			builder.WriteString("\n")
		}
	}
	return builder.String(), differ
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// createInitCommand returns the init subcommand.
func (app *application) createInitCommand(flags *rootFlags) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return app.buildLogger(command, flags)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			destination, err := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: app.loadOptions.WorkingDirectory,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(app.stdout, initializedTemplate, destination)
			return err
		},
	}
	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}
