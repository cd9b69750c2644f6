// Package style provides shared UI styling primitives for the CLI tables.
package style

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Brand Colors.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Dot     = "●"
	Warning = "!"
	Arrow   = "→"
)

// ColorProfile returns Ascii when NO_COLOR is set and the detected terminal
// profile otherwise.
func ColorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

// NewOutput returns a termenv output for w using ColorProfile.
func NewOutput(w io.Writer) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}
	return termenv.NewOutput(w, termenv.WithProfile(ColorProfile()), termenv.WithTTY(true))
}

// NewRenderer returns a lipgloss renderer for w using ColorProfile.
func NewRenderer(w io.Writer) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(ColorProfile())
	return r
}

// Styles are the table styles bound to one renderer.
type Styles struct {
	Header lipgloss.Style
	Cell   lipgloss.Style
	Good   lipgloss.Style
	Bad    lipgloss.Style
	Accent lipgloss.Style
	Border lipgloss.Style
}

// New creates the styles for r.
func New(r *lipgloss.Renderer) Styles {
	return Styles{
		Header: r.NewStyle().Bold(true).Foreground(Iris).Padding(0, 1),
		Cell:   r.NewStyle().Padding(0, 1),
		Good:   r.NewStyle().Foreground(Green),
		Bad:    r.NewStyle().Foreground(Red),
		Accent: r.NewStyle().Bold(true).Foreground(Iris),
		Border: r.NewStyle().Foreground(Slate),
	}
}
