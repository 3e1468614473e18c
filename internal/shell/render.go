package shell

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mitchellh/colorstring"

	"booklookup/internal/config"
)

// Renderer paints the two message classes the shell prints.
type Renderer struct {
	colorize    colorstring.Colorize
	errorColor  string
	resultColor string
}

// NewRenderer picks colouring from cfg.Color; in auto mode colour is used only
// when out is a terminal and NO_COLOR is unset.
func NewRenderer(cfg config.ShellConfig, out io.Writer) *Renderer {
	enabled := false
	switch strings.ToLower(cfg.Color) {
	case config.ColorAlways:
		enabled = true
	case config.ColorAuto:
		enabled = os.Getenv("NO_COLOR") == "" && isTerminal(out)
	}
	return &Renderer{
		colorize: colorstring.Colorize{
			Colors:  colorstring.DefaultColors,
			Disable: !enabled,
		},
		errorColor:  cfg.ErrorColor,
		resultColor: cfg.ResultColor,
	}
}

func (r *Renderer) Error(msg string) string  { return r.paint(r.errorColor, msg) }
func (r *Renderer) Result(msg string) string { return r.paint(r.resultColor, msg) }

// paint builds the escape codes from the colour name alone so brackets inside
// msg are never read as colour tags.
func (r *Renderer) paint(color, msg string) string {
	if color == "" {
		return msg
	}
	tag := "[" + color + "]"
	start := r.colorize.Color(tag)
	if start == "" || start == tag {
		return msg
	}
	return start + msg + r.colorize.Color("[reset]")
}

// isTerminal reports whether v is an *os.File attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
