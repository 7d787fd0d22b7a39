package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Logo printed by the CLI at startup
const Logo = `
  ┌─┐┌─┐┌─┐ ┌┐ ┌─┐┌┐┌┌─┐┬ ┬
  ├┬┘├┤ │─┼┐├┴┐├┤ ││││  ├─┤
  ┴└─└─┘└─┘└└─┘└─┘┘└┘└─┘┴ ┴
`

var (
	accent = lipgloss.Color("#00D7FF")
	warn   = lipgloss.Color("#FFD700")
	bad    = lipgloss.Color("#FF5F5F")
	good   = lipgloss.Color("#5FFF87")
	dim    = lipgloss.Color("#8A8A8A")

	LogoStyle    = lipgloss.NewStyle().Foreground(accent).Bold(true)
	LabelStyle   = lipgloss.NewStyle().Foreground(accent)
	ValueStyle   = lipgloss.NewStyle().Foreground(warn)
	ErrorStyle   = lipgloss.NewStyle().Foreground(bad).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(good)
	WarningStyle = lipgloss.NewStyle().Foreground(warn)
	DimStyle     = lipgloss.NewStyle().Foreground(dim)
)

var (
	mu      sync.Mutex
	out     io.Writer = os.Stdout
	quiet   bool
	noColor bool
)

// SetOutput redirects everything the package prints
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

// SetNoColor disables styling
func SetNoColor(n bool) {
	mu.Lock()
	defer mu.Unlock()
	noColor = n
}

// NoColor reports whether styling is disabled, either explicitly or because
// stdout is not a terminal
func NoColor() bool {
	mu.Lock()
	n := noColor
	mu.Unlock()
	return n || !IsTerminal(os.Stdout)
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Width returns the width of the terminal on f, or 0 when it is not one
func Width(f *os.File) int {
	if !IsTerminal(f) {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}

// Paint renders s with style unless colors are off
func Paint(style lipgloss.Style, s string) string {
	if NoColor() {
		return s
	}
	return style.Render(s)
}

func emit(always bool, s string) {
	mu.Lock()
	defer mu.Unlock()
	if quiet && !always {
		return
	}
	fmt.Fprintln(out, s)
}

// PrintLogo prints the logo
func PrintLogo() {
	emit(false, Paint(LogoStyle, Logo))
}

// PrintError prints an error message, optionally followed by its cause
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	emit(true, Paint(ErrorStyle, msg))
}

func PrintSuccess(msg string) {
	emit(false, Paint(SuccessStyle, msg))
}

// PrintInfo prints a label and its value
func PrintInfo(label string, value string) {
	emit(false, Paint(LabelStyle, label)+": "+Paint(ValueStyle, value))
}

func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	emit(false, Paint(WarningStyle, msg))
}

// PrintBlock prints preformatted text, such as a report, as is
func PrintBlock(s string) {
	emit(true, s)
}
