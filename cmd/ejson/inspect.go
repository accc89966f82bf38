package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	wasmejson "github.com/wippyai/wasm-ejson"
	"github.com/wippyai/wasm-ejson/codec"
	"github.com/wippyai/wasm-ejson/value"
)

type inspectState int

const (
	stateBrowse inspectState = iota
	stateGoto
)

// inspectModel browses the record tree under one root at a time. Enter
// descends into the selected container, esc goes back up.
type inspectModel struct {
	err      error
	mem      wasmejson.Memory
	format   codec.Format
	decOpts  []codec.DecoderOption
	filename string
	detail   string
	lines    []recordLine
	history  []wasmejson.Address
	input    textinput.Model
	root     wasmejson.Address
	selected int
	state    inspectState
}

func newInspectModel(filename string, mem wasmejson.Memory, f codec.Format, opts ...codec.DecoderOption) *inspectModel {
	ti := textinput.New()
	ti.Prompt = "address: "
	ti.Placeholder = "decimal or 0x hex"
	ti.Width = 20
	return &inspectModel{
		mem:      mem,
		format:   f,
		decOpts:  opts,
		filename: filename,
		input:    ti,
		state:    stateGoto,
	}
}

func (m *inspectModel) Init() tea.Cmd {
	if m.state == stateGoto {
		m.input.Focus()
		return textinput.Blink
	}
	return nil
}

// open makes addr the current root. The previous root is kept for esc
// when push is set.
func (m *inspectModel) open(addr wasmejson.Address, push bool) {
	lines, err := collectRecords(m.mem, m.format, addr, m.decOpts...)
	if err != nil {
		m.err = err
		return
	}
	if push && len(m.lines) > 0 {
		m.history = append(m.history, m.root)
	}
	m.err = nil
	m.root = addr
	m.lines = lines
	m.selected = 0
	m.state = stateBrowse
	m.describe()
}

// describe decodes the selected record for the detail pane.
func (m *inspectModel) describe() {
	if len(m.lines) == 0 {
		m.detail = ""
		return
	}
	v, err := codec.NewDecoder(m.mem, m.format, m.decOpts...).Decode(m.lines[m.selected].addr)
	if err != nil {
		m.detail = err.Error()
		return
	}
	m.detail = value.Render(v)
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.state == stateGoto {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if key.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.state == stateGoto {
		switch key.String() {
		case "enter":
			n, err := strconv.ParseUint(strings.TrimSpace(m.input.Value()), 0, 32)
			if err != nil {
				m.err = fmt.Errorf("bad address %q", m.input.Value())
				return m, nil
			}
			m.input.Blur()
			m.input.SetValue("")
			m.open(wasmejson.Address(n), true)
			return m, nil
		case "esc":
			if len(m.lines) > 0 {
				m.input.Blur()
				m.err = nil
				m.state = stateBrowse
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "q":
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
			m.describe()
		}

	case "down", "j":
		if m.selected < len(m.lines)-1 {
			m.selected++
			m.describe()
		}

	case "enter":
		if l := m.lines[m.selected]; l.children > 0 && m.selected > 0 {
			m.open(l.addr, true)
		}

	case "esc", "backspace":
		if n := len(m.history); n > 0 {
			prev := m.history[n-1]
			m.history = m.history[:n-1]
			m.open(prev, false)
		}

	case "g", "/":
		m.state = stateGoto
		m.input.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

func (m *inspectModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("ejson inspect"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	if len(m.lines) > 0 {
		b.WriteString(fmt.Sprintf("  root @%d", m.root))
	}
	b.WriteString("\n\n")

	if m.state == stateGoto {
		b.WriteString(m.input.View())
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter open • esc cancel • ctrl+c quit"))
		return b.String()
	}

	for i, l := range m.lines {
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + l.format(false)))
		} else {
			b.WriteString("  " + l.format(true))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	} else {
		b.WriteString(valueStyle.Render(summarizeDetail(m.detail)))
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("↑/↓ select • enter open • esc back • g goto • q quit"))
	return b.String()
}

func summarizeDetail(s string) string {
	return truncate(s, 400)
}

func runInspect(_ context.Context, args []string) error {
	fs := newFlagSet("inspect")

	cfg, done, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer done()

	if fs.NArg() < 1 || fs.NArg() > 2 {
		return fmt.Errorf("inspect: need a snapshot and at most one address")
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("inspect: needs a terminal, use dump instead")
	}

	a, format, err := loadSnapshot(fs.Arg(0), cfg)
	if err != nil {
		return err
	}

	m := newInspectModel(fs.Arg(0), a, format, cfg.DecoderOptions()...)
	if fs.NArg() == 2 {
		addrs, err := parseAddrs(fs.Args()[1:])
		if err != nil {
			return err
		}
		m.open(addrs[0], false)
		if m.err != nil {
			return m.err
		}
	}

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
