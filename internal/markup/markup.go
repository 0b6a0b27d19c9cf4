// Package markup turns assistant replies into a small render tree of
// paragraphs and lists with bold spans. It is not a markdown parser: there is
// no nesting, no links and no headings.
package markup

import (
	"regexp"
	"strings"
)

// SpanKind tags a Span.
type SpanKind int

const (
	Plain SpanKind = iota
	Bold
)

func (k SpanKind) String() string {
	if k == Bold {
		return "bold"
	}
	return "plain"
}

// Span is a run of inline text.
type Span struct {
	Kind SpanKind
	Text string
}

// BlockKind tags a Block.
type BlockKind int

const (
	Paragraph BlockKind = iota
	List
)

func (k BlockKind) String() string {
	if k == List {
		return "list"
	}
	return "paragraph"
}

// Block is either a Paragraph (Spans set) or a List (Items set).
type Block struct {
	Kind  BlockKind
	Spans []Span
	Items [][]Span
}

var (
	blankLine  = regexp.MustCompile(`\n\s*\n`)
	listMarker = regexp.MustCompile(`^(?:[-•]|[0-9]+\.)\s*`)
	emphasis   = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

// Render splits text into blocks on blank lines and classifies each one.
// Empty input, whitespace-only blocks and marker-only lists produce nothing.
func Render(text string) []Block {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var blocks []Block
	for _, raw := range blankLine.Split(text, -1) {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if isList(raw) {
			// a block of bare markers carries no content
			if b := listBlock(raw); len(b.Items) > 0 {
				blocks = append(blocks, b)
			}
			continue
		}
		blocks = append(blocks, Block{Kind: Paragraph, Spans: Inline(strings.TrimSpace(raw))})
	}
	return blocks
}

// isList reports whether every non-empty line carries a bullet or number marker.
func isList(raw string) bool {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !listMarker.MatchString(line) {
			return false
		}
	}
	return true
}

func listBlock(raw string) Block {
	b := Block{Kind: List}
	for _, line := range strings.Split(raw, "\n") {
		item := strings.TrimSpace(listMarker.ReplaceAllString(strings.TrimSpace(line), ""))
		if item == "" {
			continue
		}
		b.Items = append(b.Items, Inline(item))
	}
	return b
}

// Inline splits text into Plain and Bold spans. A lone ** stays literal.
func Inline(text string) []Span {
	if text == "" {
		return nil
	}
	var spans []Span
	last := 0
	for _, m := range emphasis.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			spans = append(spans, Span{Kind: Plain, Text: text[last:m[0]]})
		}
		spans = append(spans, Span{Kind: Bold, Text: text[m[2]:m[3]]})
		last = m[1]
	}
	if last < len(text) {
		spans = append(spans, Span{Kind: Plain, Text: text[last:]})
	}
	return spans
}

// PlainText flattens blocks back into text without emphasis markers. List
// items are written one per line with a "- " prefix.
func PlainText(blocks []Block) string {
	var sb strings.Builder
	for i, b := range blocks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		switch b.Kind {
		case List:
			for j, item := range b.Items {
				if j > 0 {
					sb.WriteByte('\n')
				}
				sb.WriteString("- ")
				writeSpans(&sb, item)
			}
		default:
			writeSpans(&sb, b.Spans)
		}
	}
	return sb.String()
}

func writeSpans(sb *strings.Builder, spans []Span) {
	for _, s := range spans {
		sb.WriteString(s.Text)
	}
}
