package ui

import "fmt"

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent  = 74  // blue
	colorCmd     = 250 // light gray
	colorMuted   = 245 // medium gray
	colorError   = 203 // red
	colorSuccess = 114 // green
)

var noColor bool

func render(color int, s string) string {
	if noColor || s == "" {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", color, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return render(colorCmd, s) }

// RenderError returns s in the error (red) color.
func RenderError(s string) string { return render(colorError, s) }

// RenderSuccess returns s in the success (green) color.
func RenderSuccess(s string) string { return render(colorSuccess, s) }

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

// SetColor enables or disables color output globally.
func SetColor(enabled bool) {
	noColor = !enabled
}
