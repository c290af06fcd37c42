package logger

import (
	"os"

	"github.com/fatih/color"
)

// Colorized printing functions for the different log levels, built on
// fatih/color. All diagnostics go to stderr so that machine-consumable command
// output (list tables, resolved executable paths) stays clean on stdout.

var (
	infoF    = color.New(color.FgGreen).FprintfFunc()
	successF = color.New(color.FgGreen, color.Bold).FprintfFunc()
	warnF    = color.New(color.FgHiMagenta).FprintfFunc()
	errorF   = color.New(color.FgRed).FprintfFunc()
	debugF   = color.New(color.FgCyan).FprintfFunc()
)

// Info logs informational messages in green.
func Info(format string, a ...any) {
	infoF(os.Stderr, format, a...)
}

// Success logs completed-action messages in bold green.
func Success(format string, a ...any) {
	successF(os.Stderr, format, a...)
}

// Warn logs warning messages in bright magenta.
func Warn(format string, a ...any) {
	warnF(os.Stderr, format, a...)
}

// Error logs error messages in red.
func Error(format string, a ...any) {
	errorF(os.Stderr, format, a...)
}

// Debug logs debug messages in cyan when enabled, otherwise is a no-op.
// It is assigned during Init based on the --debug flag, and defaults to the
// no-op so the package is safe to use from code that never touches the CLI.
var Debug = func(format string, a ...any) {}

// Init enables or disables debug logging.
func Init(enableDebug bool) {
	if enableDebug {
		Debug = func(format string, a ...any) {
			debugF(os.Stderr, format, a...)
		}
	} else {
		Debug = func(format string, a ...any) {}
	}
}
