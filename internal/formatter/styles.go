package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/airwaves/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// RenderProfile renders a terminal summary card for p.
//
// Points at zero render in the error style, and a listener with no favourites gets a hint.
func RenderProfile(p *models.UserProfile) string {
	var b strings.Builder

	b.WriteString(styles.title.Render(fmt.Sprintf("♫ %s", p.Username)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("role      %s\n", styles.warn.Render(p.Role)))

	points := fmt.Sprintf("%d", p.Points)
	if p.Points == 0 {
		points = styles.err.Render(points)
	} else {
		points = styles.ok.Render(points)
	}
	b.WriteString(fmt.Sprintf("points    %s\n", points))
	b.WriteString(fmt.Sprintf("listening %s\n", FormatMinutes(p.ListeningMinutes)))

	if len(p.Favorites) == 0 {
		b.WriteString(styles.help.Render("no favourite stations yet"))
		b.WriteString("\n")
	} else {
		b.WriteString(fmt.Sprintf("favorites %s\n", strings.Join(p.Favorites, ", ")))
	}

	return b.String()
}
