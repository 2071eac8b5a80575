package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
	"golang.org/x/term"
)

// Formats accepted by Setup.
const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatJSON = "json"
)

// Setup initializes the global slog logger using charmbracelet/log as the backend.
// FormatAuto picks colored text on a terminal and JSON otherwise.
func Setup(verbose bool, format string) error {
	logger, err := New(os.Stderr, verbose, format, isTerminal())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

// New builds a slog.Logger writing to w.
func New(w io.Writer, verbose bool, format string, tty bool) (*slog.Logger, error) {
	handler := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		Prefix:          "langbridge",
	})

	if verbose {
		handler.SetLevel(charmlog.DebugLevel)
	} else {
		handler.SetLevel(charmlog.InfoLevel)
	}

	switch format {
	case "", FormatAuto:
		if !tty {
			handler.SetFormatter(charmlog.JSONFormatter)
		}
	case FormatText:
	case FormatJSON:
		handler.SetFormatter(charmlog.JSONFormatter)
	default:
		return nil, fmt.Errorf("unknown log format %q (want auto, text or json)", format)
	}

	return slog.New(handler), nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
