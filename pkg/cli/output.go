package cli

import (
	"fmt"
	"io"
	"os"
)

// ANSI color codes
const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorGray  = "\033[90m"
)

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

func printBanner(w io.Writer, route string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %ssurge-monitor %s%s\n", color(colorBold), Version, color(colorReset))
	fmt.Fprintf(w, "  %sRoute:%s %s\n", color(colorGray), color(colorReset), route)
	fmt.Fprintln(w)
}

func printSection(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s%s%s\n", color(colorBold), title, color(colorReset))
}
