package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/openvita/hle-runtime/cpu"
	"github.com/openvita/hle-runtime/dispatch"
	"github.com/openvita/hle-runtime/emu"
	"github.com/openvita/hle-runtime/mem"
	"github.com/openvita/hle-runtime/modules"
	"github.com/openvita/hle-runtime/registry"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2D6A4F")).
			Padding(0, 1)

	exportStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	nidStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2D6A4F"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	traceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#BBBBBB"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// tracelog collects tracer records for the trace pane. Records arrive on
// the dispatching goroutine, the TUI reads on its own, hence the lock.
type traceLog struct {
	mu    sync.Mutex
	lines []string
}

func (t *traceLog) OnCall(r dispatch.Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, fmt.Sprintf("[%s] %s", r.Module, r.String()))
	if len(t.lines) > 10 {
		t.lines = t.lines[len(t.lines)-10:]
	}
}

func (t *traceLog) Tail() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}

type modelState int

const (
	stateSelectExport modelState = iota
	stateInputArgs
	stateShowResult
)

type interactiveModel struct {
	err        error
	env        *emu.Env
	dispatcher *dispatch.Dispatcher
	trace      *traceLog
	entries    []*registry.Entry
	input      textinput.Model
	result     string
	selected   int
	nextThread cpu.ThreadID
	state      modelState
}

func newInteractiveModel(wavFile string) (*interactiveModel, error) {
	reg, err := registry.New(modules.All()...)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}
	env, err := newSession(zap.NewNop(), wavFile)
	if err != nil {
		return nil, err
	}

	var entries []*registry.Entry
	for _, mod := range reg.Modules() {
		entries = append(entries, mod.Entries...)
	}

	trace := &traceLog{}
	d := dispatch.New(reg, env, dispatch.NewTracer(zap.NewNop()), zap.NewNop())
	d.Tracer().SetEnabled(true)
	d.Tracer().Subscribe(trace)

	ti := textinput.New()
	ti.Placeholder = "w0, w1, ... (hex or decimal)"
	ti.Prompt = "args: "
	ti.Width = 48

	return &interactiveModel{
		env:        env,
		dispatcher: d,
		trace:      trace,
		entries:    entries,
		input:      ti,
		nextThread: 1,
		state:      stateSelectExport,
	}, nil
}

type callResultMsg struct {
	err    error
	result string
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
			if m.state == stateSelectExport && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectExport && m.selected < len(m.entries)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectExport:
				m.input.SetValue("")
				m.input.Focus()
				m.state = stateInputArgs

			case stateInputArgs:
				m.input.Blur()
				return m, m.dispatchSelected

			case stateShowResult:
				m.state = stateSelectExport
				m.result = ""
				m.err = nil
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.input.Blur()
				m.state = stateSelectExport
			case stateShowResult:
				m.state = stateSelectExport
				m.result = ""
				m.err = nil
			}
		}

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) dispatchSelected() tea.Msg {
	e := m.entries[m.selected]

	th := cpu.NewState(m.nextThread)
	m.nextThread++
	th.SetSP(guestStack)

	raw := strings.TrimSpace(m.input.Value())
	if raw != "" {
		for i, tok := range strings.Split(raw, ",") {
			w, err := parseWord(strings.TrimSpace(tok))
			if err != nil {
				return callResultMsg{err: fmt.Errorf("arg %d: %w", i, err)}
			}
			if i < 4 {
				th.SetReg(i, w)
			} else {
				off := mem.Address(guestStack + uint32(i-4)*4)
				if err := m.env.Mem.WriteU32(off, w); err != nil {
					return callResultMsg{err: fmt.Errorf("spill arg %d: %w", i, err)}
				}
			}
		}
	}

	ret := m.dispatcher.Dispatch(th, e.Module, e.NID)
	return callResultMsg{result: fmt.Sprintf("r0 = 0x%08X (%d)", ret, int32(ret))}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("HLE Call Harness"))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectExport:
		b.WriteString("Select an export to dispatch:\n\n")
		for i, e := range m.entries {
			line := fmt.Sprintf("%s  %s %s",
				nidStyle.Render(fmt.Sprintf("0x%08X", e.NID)),
				exportStyle.Render(e.Module+"!"+e.Name),
				e.Signature())
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		e := m.entries[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s %s\n\n",
			exportStyle.Render(e.Name), e.Signature()))
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter call • esc back"))

	case stateShowResult:
		e := m.entries[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", exportStyle.Render(e.Name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	if tail := m.trace.Tail(); len(tail) > 0 {
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("trace"))
		b.WriteString("\n")
		for _, line := range tail {
			b.WriteString(traceStyle.Render(line))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func runInteractive(wavFile string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode requires a terminal")
	}
	m, err := newInteractiveModel(wavFile)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
