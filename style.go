package dexc

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// styleSet carries the four text treatments the renderer uses. When
// color is disabled the styles are built against the Ascii profile and
// render their input unchanged, so the styled and unstyled outputs
// differ only by the escape sequences themselves.
type styleSet struct {
	dim       lipgloss.Style
	italic    lipgloss.Style
	red       lipgloss.Style
	underline lipgloss.Style
}

func newStyles(color bool) styleSet {
	r := lipgloss.NewRenderer(io.Discard)
	if color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return styleSet{
		dim:       r.NewStyle().Faint(true),
		italic:    r.NewStyle().Italic(true),
		red:       r.NewStyle().Foreground(lipgloss.Color("1")),
		underline: r.NewStyle().Underline(true),
	}
}
