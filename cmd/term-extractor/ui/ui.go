// Package ui provides user interface components for the term-extractor CLI.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	noColorFlag bool
	verboseFlag bool
)

// InitUI initializes the UI with color and verbose settings.
func InitUI(noColor, verbose bool) {
	noColorFlag = noColor
	verboseFlag = verbose

	if noColor {
		color.NoColor = true
	}
}

// Success displays a success message.
func Success(format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(os.Stdout, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Error displays an error message to stderr.
func Error(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(os.Stderr, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Warning displays a warning message.
func Warning(format string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(os.Stdout, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info displays an informational message.
func Info(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// Verbose displays a message only when verbose output is enabled.
func Verbose(format string, args ...interface{}) {
	if verboseFlag {
		fmt.Fprintf(os.Stdout, "  %s\n", fmt.Sprintf(format, args...))
	}
}

// Newline prints a newline.
func Newline() {
	fmt.Fprintln(os.Stdout)
}

// Section displays a section header.
func Section(title string) {
	fmt.Fprintf(os.Stdout, "\n%s\n", title)
	for i := 0; i < len([]rune(title)); i++ {
		fmt.Fprint(os.Stdout, "=")
	}
	fmt.Fprint(os.Stdout, "\n\n")
}

// Table displays a simple two-column table.
func Table(headers []string, rows [][]string) {
	width := len(headers[0])
	for _, row := range rows {
		if len(row[0]) > width {
			width = len(row[0])
		}
	}
	fmt.Fprintf(os.Stdout, "%-*s  %s\n", width, headers[0], headers[1])
	for _, row := range rows {
		fmt.Fprintf(os.Stdout, "%-*s  %s\n", width, row[0], row[1])
	}
}
