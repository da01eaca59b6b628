package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"docchat/internal/domain"
	"docchat/internal/service"
	"docchat/internal/stream"
)

// ChatPort is the TUI-facing subset of the chat service.
type ChatPort interface {
	Ask(ctx context.Context, query string, cancel *stream.CancelToken) (*service.Turn, error)
	Messages() []domain.Message
	Clear(ctx context.Context) error
	Export(now time.Time) (string, error)
	SetAPIKey(ctx context.Context, key string) error
	Budget() service.BudgetStatus
}

// Model is the Bubble Tea model for the chat TUI.
type Model struct {
	service  ChatPort
	ctx      context.Context
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	summary  string
	status   string
	ready    bool

	turn   *service.Turn
	cancel *stream.CancelToken
}

// turnEventMsg reports that one event of the running turn was applied.
type turnEventMsg struct {
	turn *service.Turn
	more bool
}

// New creates a new TUI model instance.
func New(ctx context.Context, svc ChatPort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your documents and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		service:  svc,
		ctx:      ctx,
		input:    ti,
		viewport: vp,
		spinner:  sp,
		summary:  summary,
		status:   "Ready. Esc cancels an answer, /key /clear /export are available.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

func waitForEvent(t *service.Turn) tea.Cmd {
	return func() tea.Msg {
		_, more := t.Next()
		return turnEventMsg{turn: t, more: more}
	}
}

// Update handles key, window and turn events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := conversationBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + summary, status, spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-ch)
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(max(20, msg.Width-8)),
		)
		m.refresh()
		return m, nil
	case turnEventMsg:
		if msg.turn != m.turn {
			return m, nil
		}
		m.refresh()
		if msg.more {
			return m, waitForEvent(msg.turn)
		}
		m.status = describeOutcome(msg.turn, m.service.Budget())
		m.turn, m.cancel = nil, nil
		return m, nil
	case spinner.TickMsg:
		if m.turn == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			m.cancel.Cancel()
			return m, tea.Quit
		case tea.KeyEsc:
			if m.cancel != nil {
				m.cancel.Cancel()
				m.status = "Cancelling..."
			}
			return m, nil
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			if strings.HasPrefix(q, "/") {
				m.input.Reset()
				m.runCommand(q)
				return m, nil
			}
			if m.turn != nil {
				m.status = "Wait for the current answer or press Esc."
				return m, nil
			}
			token := stream.NewCancelToken()
			turn, err := m.service.Ask(m.ctx, q, token)
			if err != nil {
				m.status = "Error: " + err.Error()
				return m, nil
			}
			m.input.Reset()
			m.turn, m.cancel = turn, token
			m.status = "Answering..."
			m.refresh()
			return m, tea.Batch(waitForEvent(turn), m.spinner.Tick)
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) runCommand(line string) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "/key":
		if arg == "" {
			m.status = "Usage: /key <api-key>"
			return
		}
		if err := m.service.SetAPIKey(m.ctx, arg); err != nil {
			m.status = "Error: " + err.Error()
			return
		}
		m.status = "API key stored."
	case "/clear":
		if err := m.service.Clear(m.ctx); err != nil {
			m.status = "Error: " + err.Error()
			return
		}
		m.status = "Conversation and budget cleared."
		m.refresh()
	case "/export":
		path, err := m.service.Export(time.Now())
		if err != nil {
			m.status = "Error: " + err.Error()
			return
		}
		m.status = "Transcript written to " + path
	default:
		m.status = fmt.Sprintf("Unknown command %s", name)
	}
}

func describeOutcome(t *service.Turn, b service.BudgetStatus) string {
	switch t.Outcome() {
	case service.OutcomeCompleted:
		return fmt.Sprintf("Done. %d tokens left, about %d turns.", b.Remaining, b.RemainingTurns)
	case service.OutcomeCancelled:
		return "Cancelled. Partial answer kept."
	case service.OutcomeRefused:
		return "No relevant content in the loaded documents."
	case service.OutcomeFailed:
		return "Failed: " + string(t.Failure())
	}
	return ""
}

// View renders the TUI layout and current conversation.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("DocChat")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := m.status
	if m.turn != nil {
		status = m.spinner.View() + " " + status
	}
	status = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(status) +
		"  " + budgetStyle.Render(formatBudget(m.service.Budget()))
	conversation := conversationBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + conversation + "\n" + input + "\n" + status
}

func formatBudget(b service.BudgetStatus) string {
	s := fmt.Sprintf("tokens %d/%d  ~%d turns left", b.Consumed, b.TotalLimit, b.RemainingTurns)
	if b.OverLimit {
		s += "  (over limit)"
	}
	return s
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

func (m Model) renderConversation() string {
	msgs := m.service.Messages()
	if len(msgs) == 0 {
		return "No messages yet."
	}
	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		switch msg.Role {
		case domain.RoleUser:
			b.WriteString(userStyle.Render("You"))
			b.WriteString("\n")
			b.WriteString(msg.Text)
			b.WriteString("\n")
		default:
			b.WriteString(assistantStyle.Render("Assistant"))
			b.WriteString("\n")
			streaming := m.turn != nil && i == len(msgs)-1
			b.WriteString(m.renderAnswer(msg.Text, streaming))
			b.WriteString("\n")
			for _, src := range msg.Sources {
				b.WriteString(sourceStyle.Render("  source: " + src.Title))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

// renderAnswer renders finished answers as markdown. Streaming text is shown
// raw since partial markdown renders badly.
func (m Model) renderAnswer(text string, streaming bool) string {
	if streaming || m.renderer == nil || text == "" {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

var (
	conversationBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	sourceStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	budgetStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
