// Package console renders a judgement Session as a terminal UI.
package console

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/judgement"
)

const maxTranscript = 400

var (
	resultStyle = lipgloss.NewStyle().Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	hintStyle   = lipgloss.NewStyle().Faint(true)
)

type submittedMsg struct {
	t   judgement.Transition
	err error
}

// Model is the bubbletea model wrapping a Session.
type Model struct {
	ctx        context.Context
	session    *judgement.Session
	input      textinput.Model
	transcript []string
	busy       bool
	quitting   bool
}

func New(ctx context.Context, session *judgement.Session) Model {
	ti := textinput.New()
	ti.CharLimit = 500
	ti.Width = 80
	ti.Prompt = ""
	ti.Focus()
	return Model{
		ctx:        ctx,
		session:    session,
		input:      ti,
		transcript: []string{"Enter your query", ""},
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if m.busy {
				return m, nil
			}
			line := m.input.Value()
			m.input.Reset()
			m.appendLines(prompt(m.session.State()) + line)
			if m.session.State() == judgement.AwaitingDescription {
				m.busy = true
				return m, m.submit(line)
			}
			t, err := m.session.Submit(m.ctx, line)
			return m.handle(t, err)
		}

	case submittedMsg:
		m.busy = false
		return m.handle(msg.t, msg.err)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit runs a Submit that ranks the query off the update loop.
func (m Model) submit(line string) tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		t, err := session.Submit(ctx, line)
		return submittedMsg{t: t, err: err}
	}
}

func (m Model) handle(t judgement.Transition, err error) (tea.Model, tea.Cmd) {
	switch {
	case judgement.IsInvalidJudgement(err):
		m.appendLines(errorStyle.Render(
			"Error: The relevance judgements should be valid numbers separated by spaces. Repeat your query"))
		m.appendLines(hintStyle.Render("Enter another query to continue or a blank query to quit"), "")
		return m, nil
	case err != nil:
		m.appendLines(errorStyle.Render("Error: "+err.Error()), "")
		return m, nil
	}

	switch t.To {
	case judgement.Terminal:
		m.quitting = true
		return m, tea.Quit
	case judgement.AwaitingJudgements:
		m.appendLines(RenderResults(*t.Results)...)
		m.appendLines("Enter the numbers of the relevant pages separated by spaces: ")
	case judgement.AwaitingQuery:
		if t.From == judgement.AwaitingJudgements {
			m.appendLines(hintStyle.Render("Enter another query to continue or a blank query to quit"), "")
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return strings.Join(m.transcript, "\n") + "\n"
	}
	var b strings.Builder
	b.WriteString(strings.Join(m.transcript, "\n"))
	b.WriteString("\n")
	if m.busy {
		b.WriteString(hintStyle.Render("ranking..."))
		return b.String()
	}
	b.WriteString(prompt(m.session.State()))
	b.WriteString(m.input.View())
	return b.String()
}

func (m *Model) appendLines(lines ...string) {
	m.transcript = append(m.transcript, lines...)
	if over := len(m.transcript) - maxTranscript; over > 0 {
		m.transcript = m.transcript[over:]
	}
}

// RenderResults formats a result page: a latency header and one bold,
// 1-based line per result.
func RenderResults(res judgement.Results) []string {
	lines := make([]string, 0, len(res.Items)+1)
	lines = append(lines, fmt.Sprintf("Showing top %d of results (%dms)", judgement.MaxResults, res.Elapsed.Milliseconds()))
	for i, r := range res.Items {
		lines = append(lines, resultStyle.Render(fmt.Sprintf("%d. %s", i+1, r.Name)))
	}
	return lines
}

func prompt(s judgement.State) string {
	switch s {
	case judgement.AwaitingQuery:
		return "> "
	case judgement.AwaitingDescription:
		return "Enter a description of your query:  "
	default:
		return ""
	}
}

// Run drives session from in to out until the user submits a blank query.
func Run(ctx context.Context, session *judgement.Session, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(New(ctx, session),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running judgement console: %w", err)
	}
	return nil
}
