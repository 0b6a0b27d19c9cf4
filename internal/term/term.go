// Package term renders conversation turns and recommendation cards for a
// terminal.
package term

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/comigor/bodi-go/internal/catalog"
	"github.com/comigor/bodi-go/internal/history"
	"github.com/comigor/bodi-go/internal/llm"
	"github.com/comigor/bodi-go/internal/markup"
	"github.com/comigor/bodi-go/internal/recommend"
)

var (
	colorBrand   = lipgloss.Color("#1D9E75")
	colorMuted   = lipgloss.Color("241")
	colorWarning = lipgloss.Color("#F4D03F")
)

var styles = struct {
	Speaker  lipgloss.Style
	You      lipgloss.Style
	Bold     lipgloss.Style
	Muted    lipgloss.Style
	Header   lipgloss.Style
	Card     lipgloss.Style
	Verified lipgloss.Style
	Failed   lipgloss.Style
}{
	Speaker:  lipgloss.NewStyle().Bold(true).Foreground(colorBrand),
	You:      lipgloss.NewStyle().Bold(true),
	Bold:     lipgloss.NewStyle().Bold(true),
	Muted:    lipgloss.NewStyle().Foreground(colorMuted),
	Header:   lipgloss.NewStyle().Bold(true).Foreground(colorBrand),
	Card:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBrand).Padding(0, 1),
	Verified: lipgloss.NewStyle().Foreground(colorBrand),
	Failed:   lipgloss.NewStyle().Foreground(colorWarning),
}

// Nigerian Pidgin.
var pidginTag = language.MustParse("pcm")

const (
	keyPlaceholder = "Describe your needs..."
	keyHeader      = "Recommended Properties (%d)"
	keyViewAll     = "View All → %s"
	keyVerified    = "✓ Verified"
)

func init() {
	for _, kv := range [][2]string{
		{keyPlaceholder, "Describe your needs..."},
		{keyHeader, "Recommended Properties (%d)"},
		{keyViewAll, "View All → %s"},
		{keyVerified, "✓ Verified"},
	} {
		if err := message.SetString(language.English, kv[0], kv[1]); err != nil {
			panic(err)
		}
	}
	for _, kv := range [][2]string{
		{keyPlaceholder, "Wetin you need?"},
		{keyHeader, "Recommended Properties (%d)"},
		{keyViewAll, "See am all → %s"},
		{keyVerified, "✓ Verified"},
	} {
		if err := message.SetString(pidginTag, kv[0], kv[1]); err != nil {
			panic(err)
		}
	}
}

func printer(lang llm.Language) *message.Printer {
	if lang == llm.Pidgin {
		return message.NewPrinter(pidginTag)
	}
	return message.NewPrinter(language.English)
}

// Placeholder is the input prompt hint for lang.
func Placeholder(lang llm.Language) string {
	return printer(lang).Sprintf(keyPlaceholder)
}

// Message renders one transcript message with its speaker label.
func Message(msg history.Message, blocks []markup.Block) string {
	label := styles.Speaker.Render("BODI")
	if msg.Role == history.RoleUser {
		label = styles.You.Render("You")
	}
	return label + "\n" + Blocks(blocks)
}

// Failure renders a fallback turn.
func Failure(text string) string {
	return styles.Speaker.Render("BODI") + "\n" + styles.Failed.Render(text)
}

// Blocks renders structured text. Bold spans are styled; list items are
// bulleted and indented.
func Blocks(blocks []markup.Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		switch b.Kind {
		case markup.List:
			lines := make([]string, 0, len(b.Items))
			for _, item := range b.Items {
				lines = append(lines, "  • "+spans(item))
			}
			parts = append(parts, strings.Join(lines, "\n"))
		default:
			parts = append(parts, spans(b.Spans))
		}
	}
	return strings.Join(parts, "\n\n")
}

func spans(ss []markup.Span) string {
	var sb strings.Builder
	for _, s := range ss {
		if s.Kind == markup.Bold {
			sb.WriteString(styles.Bold.Render(s.Text))
			continue
		}
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Card renders a single listing.
func Card(e catalog.Entry, lang llm.Language) string {
	lines := []string{
		styles.Bold.Render(e.Title),
		styles.Muted.Render(e.Location),
		catalog.FormatNaira(e.PriceMinor),
	}
	if e.Verified {
		lines = append(lines, styles.Verified.Render(printer(lang).Sprintf(keyVerified)))
	}
	lines = append(lines, styles.Muted.Render(fmt.Sprintf("[%s] %s", e.ID, recommend.ListingPath(e.ID))))
	return styles.Card.Render(strings.Join(lines, "\n"))
}

// Recommendations renders the card strip under an assistant message. It
// returns "" for an empty set so nothing is shown.
func Recommendations(set recommend.Set, viewAll string, lang llm.Language) string {
	if len(set) == 0 {
		return ""
	}
	p := printer(lang)

	cards := make([]string, 0, len(set))
	for _, e := range set {
		cards = append(cards, Card(e, lang))
	}

	out := []string{styles.Header.Render(p.Sprintf(keyHeader, len(set)))}
	out = append(out, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	if viewAll != "" {
		out = append(out, styles.Muted.Render(p.Sprintf(keyViewAll, viewAll)))
	}
	return strings.Join(out, "\n")
}
