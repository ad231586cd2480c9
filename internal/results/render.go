package results

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "#006400", Dark: "#00ff00"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#8b0000", Dark: "#ff5f5f"}
	colorIndigo = lipgloss.AdaptiveColor{Light: "#3730a3", Dark: "#a5b4fc"}
	colorGray   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"}
)

// Theme holds the styles used by Render
type Theme struct {
	Heading lipgloss.Style
	Alert   lipgloss.Style
	Success lipgloss.Style
	Subtle  lipgloss.Style
	Label   lipgloss.Style
	Link    lipgloss.Style
	Rank    lipgloss.Style
	Card    lipgloss.Style
}

// DefaultTheme builds the colored theme on the given renderer. A nil
// renderer uses lipgloss's default, which detects the terminal.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	return Theme{
		Heading: r.NewStyle().Bold(true),
		Alert:   r.NewStyle().Bold(true).Foreground(colorRed),
		Success: r.NewStyle().Bold(true).Foreground(colorGreen),
		Subtle:  r.NewStyle().Foreground(colorGray),
		Label:   r.NewStyle().Bold(true).Foreground(colorGray),
		Link:    r.NewStyle().Underline(true).Foreground(colorIndigo),
		Rank:    r.NewStyle().Bold(true).Foreground(colorIndigo),
		Card:    r.NewStyle().PaddingLeft(2),
	}
}

// Render draws a view as terminal text. width wraps long paragraphs; 0
// disables wrapping. EmptyView renders as "".
func Render(v View, theme Theme, width int) string {
	wrap := func(s lipgloss.Style) lipgloss.Style {
		if width > 0 {
			return s.Width(width)
		}
		return s
	}

	switch v := v.(type) {
	case ErrorView:
		return lipgloss.JoinVertical(lipgloss.Left,
			theme.Alert.Render(v.Title),
			wrap(theme.Subtle).Render(v.Message),
		)

	case ProgressView:
		return theme.Subtle.Render(v.Text)

	case PromptView:
		return theme.Subtle.Render(v.Text)

	case PlagiarismView:
		lines := []string{theme.Alert.Render("⚠ " + PlagiarismTitle), ""}
		if v.Title != "" {
			lines = append(lines, theme.Label.Render("Title:"), wrap(lipgloss.NewStyle()).Render(v.Title), "")
		}
		if v.Reason != "" {
			lines = append(lines, theme.Label.Render("Reason:"), wrap(lipgloss.NewStyle()).Render(v.Reason), "")
		}
		if v.URL != "" {
			lines = append(lines, theme.Link.Render(ArticleLinkText+" "+v.URL))
		}
		return strings.TrimRight(strings.Join(lines, "\n"), "\n")

	case NoPlagiarismView:
		return theme.Success.Render(NoPlagiarismText)

	case DoppelgangerEmptyView:
		return theme.Subtle.Render(DoppelgangerEmptyText)

	case DoppelgangerView:
		return renderDoppelganger(v, theme, wrap)

	default:
		return ""
	}
}

// AllHeadingText is the heading of the full list. The count is shown only
// when positive.
func AllHeadingText(count int) string {
	if count > 0 {
		return fmt.Sprintf("%s (%d)", AllHeading, count)
	}
	return AllHeading
}

func renderDoppelganger(v DoppelgangerView, theme Theme, wrap func(lipgloss.Style) lipgloss.Style) string {
	var b strings.Builder

	b.WriteString(theme.Heading.Render(Top3Heading))
	b.WriteString("\n")
	if v.Justification != "" {
		b.WriteString(wrap(theme.Subtle).Render(v.Justification))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(v.Top3) == 0 {
		b.WriteString(theme.Subtle.Render(Top3EmptyText))
		b.WriteString("\n")
	}
	for _, p := range v.Top3 {
		b.WriteString(renderPaper(theme.Rank.Render(fmt.Sprintf("#%d", p.Rank)), p.Paper, theme, wrap))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.Heading.Render(AllHeadingText(v.Count)))
	b.WriteString("\n\n")

	if len(v.All) == 0 {
		b.WriteString(theme.Subtle.Render(AllEmptyText))
		b.WriteString("\n")
	}
	for _, p := range v.All {
		b.WriteString(renderPaper(theme.Subtle.Render(fmt.Sprintf("%d.", p.ID)), p, theme, wrap))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func renderPaper(marker string, p Paper, theme Theme, wrap func(lipgloss.Style) lipgloss.Style) string {
	lines := []string{marker + " " + theme.Heading.Render(p.Title)}
	if p.Domain != "" {
		lines = append(lines, theme.Card.Render(theme.Label.Render("Domain:")+" "+p.Domain))
	}
	if p.Reason != "" {
		lines = append(lines, wrap(theme.Card).Render(p.Reason))
	}
	if p.URL != "" {
		lines = append(lines, theme.Card.Render(theme.Link.Render(PaperLinkText+" "+p.URL)))
	}
	return strings.Join(lines, "\n") + "\n"
}
