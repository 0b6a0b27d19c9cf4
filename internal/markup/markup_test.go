package markup

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func p(spans ...Span) Block     { return Block{Kind: Paragraph, Spans: spans} }
func l(items ...[]Span) Block   { return Block{Kind: List, Items: items} }
func plain(s string) Span       { return Span{Kind: Plain, Text: s} }
func bold(s string) Span        { return Span{Kind: Bold, Text: s} }
func item(spans ...Span) []Span { return spans }

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Block
	}{
		{
			name: "empty",
			in:   "",
			want: nil,
		},
		{
			name: "whitespace only",
			in:   "  \n\n \t \n",
			want: nil,
		},
		{
			name: "dash list",
			in:   "- one\n- two",
			want: []Block{l(item(plain("one")), item(plain("two")))},
		},
		{
			name: "bold then plain",
			in:   "**Bold** then plain",
			want: []Block{p(bold("Bold"), plain(" then plain"))},
		},
		{
			name: "paragraph and list",
			in:   "Try LAG-001 and LAG-003.\n\n- Good transit\n- Safe area",
			want: []Block{
				p(plain("Try LAG-001 and LAG-003.")),
				l(item(plain("Good transit")), item(plain("Safe area"))),
			},
		},
		{
			name: "numbered and bullet markers",
			in:   "1. first\n2.second\n• third",
			want: []Block{l(item(plain("first")), item(plain("second")), item(plain("third")))},
		},
		{
			name: "mixed lines stay a paragraph",
			in:   "Options:\n- LAG-001",
			want: []Block{p(plain("Options:\n- LAG-001"))},
		},
		{
			name: "empty list items dropped",
			in:   "- a\n-\n  •  \n- b",
			want: []Block{l(item(plain("a")), item(plain("b")))},
		},
		{
			name: "bold inside list item",
			in:   "- **LAG-001**: Modern flat for **₦800,000/year**.",
			want: []Block{l(item(bold("LAG-001"), plain(": Modern flat for "), bold("₦800,000/year"), plain(".")))},
		},
		{
			name: "unmatched emphasis is literal",
			in:   "price is **high",
			want: []Block{p(plain("price is **high"))},
		},
		{
			name: "marker-only list",
			in:   "- \n-",
			want: nil,
		},
		{
			name: "marker-only list between paragraphs",
			in:   "before\n\n• \n1.\n\nafter",
			want: []Block{p(plain("before")), p(plain("after"))},
		},
		{
			name: "three or more line breaks and CRLF",
			in:   "first\r\n\r\n\r\nsecond\n \nthird",
			want: []Block{p(plain("first")), p(plain("second")), p(plain("third"))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Render(tt.in)); diff != "" {
				t.Errorf("Render(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestInline_AdjacentBold(t *testing.T) {
	got := Inline("**a****b** c")
	require.Equal(t, []Span{bold("a"), bold("b"), plain(" c")}, got)
	require.Nil(t, Inline(""))
}

func TestPlainText(t *testing.T) {
	blocks := Render("Hello **there**.\n\n- one\n- **two**")
	require.Equal(t, "Hello there.\n\n- one\n- two", PlainText(blocks))
}

// TestRender_Idempotent re-renders the same reply and expects identical trees.
func TestRender_Idempotent(t *testing.T) {
	in := "Try **LAG-001**.\n\n1. Near UNILAG\n2. Verified"
	require.Equal(t, Render(in), Render(in))
}
