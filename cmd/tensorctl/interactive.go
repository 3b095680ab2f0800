package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-tensor/host"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

type interactiveModel struct {
	err      error
	session  *session
	result   string
	funcs    []host.Func
	inputs   []textinput.Model
	objects  table.Model
	seen     uint64
	selected int
	focusIdx int
	state    modelState
	loaded   bool
}

type callResultMsg struct {
	err    error
	result string
}

func newInteractiveModel(s *session) *interactiveModel {
	objects := table.New(
		table.WithColumns([]table.Column{
			{Title: "Handle", Width: 8},
			{Title: "Type", Width: 10},
			{Title: "Refs", Width: 6},
			{Title: "Value", Width: 48},
		}),
		table.WithHeight(8),
	)
	m := &interactiveModel{
		session: s,
		funcs:   s.host.Definitions(),
		objects: objects,
		state:   stateSelectFunc,
	}
	m.refreshObjects()
	return m
}

// refreshObjects reloads the heap table when heap events arrived since the
// last load.
func (m *interactiveModel) refreshObjects() {
	events := m.session.events.Load()
	if m.loaded && events == m.seen {
		return
	}
	m.seen = events
	m.loaded = true

	var rows []table.Row
	for _, r := range m.session.objects() {
		rows = append(rows, table.Row{
			strconv.Itoa(int(r.handle)),
			r.typ,
			strconv.Itoa(int(r.refs)),
			r.value,
		})
	}
	m.objects.SetRows(rows)
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state != stateInputArgs || msg.String() == "ctrl+c" {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.funcs)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callFunction
				}
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.callFunction

			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectFunc
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}
		}

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
		m.refreshObjects()
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) prepareInputs() {
	f := m.funcs[m.selected]
	m.inputs = make([]textinput.Model, len(f.Params))
	for i, p := range f.Params {
		ti := textinput.New()
		ti.Placeholder = witTypeStr(p)
		ti.Prompt = fmt.Sprintf("arg%d: ", i)
		ti.Width = 20
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) callFunction() tea.Msg {
	f := m.funcs[m.selected]
	args := make([]uint64, len(m.inputs))
	for i, input := range m.inputs {
		v, err := strconv.ParseUint(strings.TrimSpace(input.Value()), 10, 32)
		if err != nil {
			return callResultMsg{err: fmt.Errorf("arg%d: %w", i, err)}
		}
		args[i] = v
	}

	results, err := m.session.call(f.Name, args...)
	if err != nil {
		return callResultMsg{err: err}
	}

	var out []string
	for i, r := range results {
		out = append(out, formatResult(f.Results[i], r))
	}
	if pending := m.session.heap.Err(); pending != nil {
		out = append(out, errorStyle.Render("pending: "+pending.Error()))
	}
	if len(out) == 0 {
		out = append(out, "ok")
	}
	return callResultMsg{result: strings.Join(out, "\n")}
}

func formatResult(t wit.Type, v uint64) string {
	switch t.(type) {
	case wit.S32:
		return strconv.Itoa(int(api.DecodeI32(v)))
	case wit.S64:
		return strconv.FormatInt(int64(v), 10)
	case wit.Bool:
		return strconv.FormatBool(v != 0)
	default:
		return "#" + strconv.FormatUint(uint64(api.DecodeU32(v)), 10)
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Tensor Heap"))
	b.WriteString(" ")
	b.WriteString(m.session.host.Name())
	b.WriteString(helpStyle.Render(fmt.Sprintf("  %d heap events", m.seen)))
	b.WriteString("\n\n")
	b.WriteString(m.objects.View())
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		b.WriteString("Select a function to call:\n\n")
		for i, f := range m.funcs {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + formatFunc(f)))
			} else {
				b.WriteString("  " + formatFunc(f))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(f.Name)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(witTypeStr(f.Params[i])))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(f.Name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func formatFunc(f host.Func) string {
	var params []string
	for i, p := range f.Params {
		params = append(params, fmt.Sprintf("arg%d: ", i)+typeStyle.Render(witTypeStr(p)))
	}
	result := ""
	if len(f.Results) > 0 {
		result = " -> " + typeStyle.Render(witTypeStr(f.Results[0]))
	}
	return funcStyle.Render(f.Name) + "(" + strings.Join(params, ", ") + ")" + result
}

func witTypeStr(t wit.Type) string {
	switch v := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.S64:
		return "s64"
	case *wit.TypeDef:
		switch k := v.Kind.(type) {
		case *wit.Own:
			return "own<" + witTypeStr(k.Type) + ">"
		case *wit.Borrow:
			return "borrow<" + witTypeStr(k.Type) + ">"
		}
		if v.Name != nil {
			return *v.Name
		}
		return "typedef"
	default:
		return fmt.Sprintf("%T", t)
	}
}

func runInteractive(s *session) error {
	p := tea.NewProgram(newInteractiveModel(s), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
