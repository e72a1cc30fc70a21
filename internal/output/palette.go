package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/temirov/abcdump/internal/types"
)

const (
	noColorEnvironmentVariable = "NO_COLOR"
	invalidColorModeFormat     = "invalid color mode %q (expected auto, always or never)"
)

type colorFunc func(a ...interface{}) string

// Palette colors the parts of a raw dump line.
type Palette struct {
	Name   colorFunc
	Meta   colorFunc
	Tag    colorFunc
	Number colorFunc
	Header colorFunc
}

func plainColor(a ...interface{}) string { return fmt.Sprint(a...) }

// NewPalette returns the colored palette when enabled and an identity palette otherwise.
func NewPalette(enabled bool) Palette {
	if !enabled {
		return Palette{Name: plainColor, Meta: plainColor, Tag: plainColor, Number: plainColor, Header: plainColor}
	}
	return Palette{
		Name:   enabledColor(color.New(color.FgHiWhite, color.Bold)),
		Meta:   enabledColor(color.New(color.FgHiBlack)),
		Tag:    enabledColor(color.RGB(196, 96, 16)),
		Number: enabledColor(color.RGB(128, 216, 236)),
		Header: enabledColor(color.New(color.FgCyan)),
	}
}

// enabledColor forces escape sequences regardless of the terminal detection done by the color package.
func enabledColor(attributes *color.Color) colorFunc {
	attributes.EnableColor()
	return attributes.SprintFunc()
}

// ColorEnabled resolves a --color mode against the destination writer.
func ColorEnabled(mode string, destination io.Writer) (bool, error) {
	switch mode {
	case types.ColorAlways:
		return true, nil
	case types.ColorNever:
		return false, nil
	case types.ColorAuto, "":
		if os.Getenv(noColorEnvironmentVariable) != "" {
			return false, nil
		}
		file, isFile := destination.(*os.File)
		if !isFile {
			return false, nil
		}
		return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd()), nil
	default:
		return false, fmt.Errorf(invalidColorModeFormat, mode)
	}
}
