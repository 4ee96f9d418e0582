package cli

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// styler renders text with lipgloss when writing to a terminal and
// leaves it plain otherwise.
type styler struct {
	color bool
}

func newStyler(out io.Writer, noColor bool) styler {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return styler{}
	}
	f, ok := out.(*os.File)
	return styler{color: ok && term.IsTerminal(int(f.Fd()))}
}

func (s styler) render(style lipgloss.Style, text string) string {
	if !s.color {
		return text
	}
	return style.Render(text)
}

func (s styler) success(text string) string { return s.render(successStyle, text) }
func (s styler) warning(text string) string { return s.render(warningStyle, text) }
func (s styler) failure(text string) string { return s.render(errorStyle, text) }
func (s styler) info(text string) string    { return s.render(infoStyle, text) }
func (s styler) muted(text string) string   { return s.render(mutedStyle, text) }
func (s styler) section(text string) string { return s.render(sectionStyle, text) }

// line colours a repair or revert log line by its leading verb.
func (s styler) line(text string) string {
	verb, rest, ok := strings.Cut(text, " ")
	if !ok {
		return text
	}
	switch verb {
	case "FIXED", "REVERTED":
		return s.success(verb) + " " + rest
	case "FAILED":
		return s.failure(verb) + " " + rest
	case "PLANNED":
		return s.info(verb) + " " + rest
	case "SKIPPED":
		return s.muted(text)
	}
	return text
}
