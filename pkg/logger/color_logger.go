package logger

import (
	"fmt"
	"log"
	"os"

	"github.com/ManouchehrRasoulli/rfsorter/internal"
	"github.com/mattn/go-isatty"
)

type ColorLogger struct {
	*log.Logger
	enabled bool
}

type Color string

const (
	ColorBlack  Color = "\u001b[30m"
	ColorRed    Color = "\u001b[31m"
	ColorGreen  Color = "\u001b[32m"
	ColorYellow Color = "\u001b[33m"
	ColorBlue   Color = "\u001b[34m"
	ColorReset  Color = "\u001b[0m"
)

// NewColorLogger wraps lg. Colors are only written when lg goes to a
// terminal.
func NewColorLogger(lg *log.Logger) *ColorLogger {
	c := ColorLogger{
		Logger:  lg,
		enabled: isTerminal(lg),
	}
	return &c
}

func isTerminal(lg *log.Logger) bool {
	f, ok := lg.Writer().(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetColors forces colors on or off.
func (c *ColorLogger) SetColors(enabled bool) {
	c.enabled = enabled
}

func (c *ColorLogger) Printcf(color Color, format string, args ...interface{}) {
	c.Printc(color, fmt.Sprintf(format, args...))
}

func (c *ColorLogger) Printc(color Color, s string) {
	if !c.enabled {
		c.Print(s)
		return
	}
	c.Print(string(color) + s + string(ColorReset))
}

// StatusHook prints watcher status lines, colored by what they report.
func (c *ColorLogger) StatusHook(s internal.Status) {
	c.Printc(StatusColor(s), s.String())
}

func StatusColor(s internal.Status) Color {
	switch s.Kind {
	case internal.StatusOutcome:
		switch s.Outcome.Result {
		case internal.Moved:
			return ColorGreen
		case internal.Failed:
			return ColorRed
		default:
			return ColorYellow
		}
	case internal.StatusError, internal.StatusUnknownHandle, internal.StatusTerminated:
		return ColorRed
	case internal.StatusWalkSkipped, internal.StatusEvicted:
		return ColorYellow
	case internal.StatusRegistered, internal.StatusUpdated, internal.StatusScanning, internal.StatusScanned:
		return ColorBlue
	default:
		return ColorReset
	}
}
