package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	wasmejson "github.com/wippyai/wasm-ejson"
	"github.com/wippyai/wasm-ejson/codec"
	"github.com/wippyai/wasm-ejson/value"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	addrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// recordLine is one record of a walked tree, ready for display.
type recordLine struct {
	addr     wasmejson.Address
	tag      codec.Tag
	size     uint32
	depth    int
	label    string
	summary  string
	children int
	key      bool
}

// collectRecords walks the tree at addr and describes every record. opts
// carry the configured nesting limit.
func collectRecords(mem wasmejson.Memory, f codec.Format, addr wasmejson.Address, opts ...codec.DecoderOption) ([]recordLine, error) {
	dec := codec.NewDecoder(mem, f, opts...)
	var lines []recordLine
	err := codec.Walk(mem, f, addr, func(v codec.Visit) error {
		line := recordLine{
			addr:  v.Addr,
			tag:   v.Tag,
			size:  v.Size,
			depth: v.Depth,
			key:   v.Key,
		}
		if len(v.Path) > 0 {
			line.label = v.Path[len(v.Path)-1]
		}

		switch v.Tag {
		case codec.TagArray:
			line.children = len(v.Children)
			line.summary = fmt.Sprintf("%d items", len(v.Children))
		case codec.TagObject:
			line.children = len(v.Children) / 2
			line.summary = fmt.Sprintf("%d members", len(v.Children)/2)
		case codec.TagLeft, codec.TagRight:
			line.children = 1
			line.summary = fmt.Sprintf("-> %d", v.Children[0])
		default:
			val, err := dec.Decode(v.Addr)
			if err != nil {
				return err
			}
			line.summary = summarize(val)
		}
		lines = append(lines, line)
		return nil
	}, opts...)
	return lines, err
}

func summarize(v value.Value) string {
	return truncate(value.Render(v), 60)
}

// truncate shortens s to at most limit bytes, ending in "..." when cut.
// The cut falls on a rune boundary.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// format renders the line. Styling is skipped when styled is false so
// output piped to files stays plain.
func (l recordLine) format(styled bool) string {
	paint := func(st lipgloss.Style, s string) string {
		if !styled {
			return s
		}
		return st.Render(s)
	}

	var b strings.Builder
	b.WriteString(strings.Repeat("  ", l.depth))
	b.WriteString(paint(addrStyle, fmt.Sprintf("@%d", l.addr)))
	b.WriteString(" ")
	if l.label != "" {
		label := l.label
		if l.key {
			label += " (key)"
		}
		b.WriteString(paint(keyStyle, label))
		b.WriteString(" ")
	}
	b.WriteString(paint(tagStyle, codec.TagName(l.tag)))
	b.WriteString(fmt.Sprintf(" %dB ", l.size))
	b.WriteString(paint(valueStyle, l.summary))
	return b.String()
}
