// Package chat is the interactive terminal chat over a domain.ChatService.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"scout/internal/adapter/tui/theme"
	"scout/internal/adapter/tui/uxerror"
	"scout/internal/domain"
)

// Vertical space taken by the header, status bar and bordered input.
const chromeHeight = 1 + 1 + 3

type role int

const (
	roleUser role = iota
	roleBot
	roleError
	roleInfo
)

type entry struct {
	role role
	text string
}

// replyMsg carries the outcome of one chat turn.
type replyMsg struct {
	reply domain.ChatReply
	err   error
}

// Model is the root Bubble Tea model of the terminal chat.
type Model struct {
	ctx      context.Context
	chat     domain.ChatService
	threadID string

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	entries []entry
	waiting bool
	cancel  context.CancelFunc
	ready   bool
	width   int

	md      *glamour.TermRenderer
	mdWidth int
}

// NewModel creates a chat bound to threadID. An empty threadID uses the
// default thread.
func NewModel(ctx context.Context, chat domain.ChatService, threadID string) Model {
	if threadID == "" {
		threadID = domain.DefaultThreadID
	}

	in := textinput.New()
	in.Placeholder = "Ask anything... (/clear, /quit)"
	in.Prompt = "> "
	in.CharLimit = 4000
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Spinner)

	return Model{
		ctx:      ctx,
		chat:     chat,
		threadID: threadID,
		viewport: viewport.New(80, 20),
		input:    in,
		spinner:  sp,
		width:    80,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 1)
		m.input.Width = max(msg.Width-6, 10)
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case replyMsg:
		m.waiting = false
		m.cancel = nil
		switch {
		case msg.err == nil:
			m.entries = append(m.entries, entry{role: roleBot, text: msg.reply.Response})
		case errors.Is(msg.err, context.Canceled):
			m.entries = append(m.entries, entry{role: roleInfo, text: "Request cancelled."})
		default:
			m.entries = append(m.entries, entry{role: roleError, text: uxerror.Humanize(msg.err).Render()})
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit

	case tea.KeyEsc:
		if m.cancel != nil {
			m.cancel()
		}
		return m, nil

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyEnter:
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	query := strings.TrimSpace(m.input.Value())
	if query == "" || m.waiting {
		return m, nil
	}
	m.input.Reset()

	switch query {
	case "/quit", "/exit":
		return m, tea.Quit
	case "/clear":
		m.entries = nil
		m.refresh()
		return m, nil
	}

	m.entries = append(m.entries, entry{role: roleUser, text: query})
	m.waiting = true

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.refresh()

	return m, tea.Batch(ask(ctx, cancel, m.chat, domain.ChatTurn{Query: query, ThreadID: m.threadID}), m.spinner.Tick)
}

// ask runs one turn off the UI goroutine.
func ask(ctx context.Context, cancel context.CancelFunc, chat domain.ChatService, turn domain.ChatTurn) tea.Cmd {
	return func() tea.Msg {
		defer cancel()
		reply, err := chat.Chat(ctx, turn)
		return replyMsg{reply: reply, err: err}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}

	header := theme.Header.Render("scout") + theme.TextMuted.Render("thread "+m.threadID)

	status := "enter send · esc cancel · pgup/pgdn scroll · ctrl+c quit"
	if m.waiting {
		status = m.spinner.View() + " searching and thinking..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		theme.StatusBar.Width(m.width).Render(status),
		theme.InputBorder.Width(max(m.width-2, 10)).Render(m.input.View()),
	)
}

// refresh re-renders the transcript into the viewport and scrolls to the end.
func (m *Model) refresh() {
	width := min(max(m.width-2, 20), theme.MaxContentWidth)

	var sb strings.Builder
	for _, e := range m.entries {
		sb.WriteString(m.renderEntry(e, width))
		sb.WriteString("\n")
	}
	m.viewport.SetContent(sb.String())
	m.viewport.GotoBottom()
}

func (m *Model) renderEntry(e entry, width int) string {
	body := lipgloss.NewStyle().Width(width).PaddingLeft(2)
	switch e.role {
	case roleUser:
		return theme.UserLabel.Render(theme.Symbols.User) + "\n" + body.Render(e.text)
	case roleBot:
		return theme.BotLabel.Render(theme.Symbols.Bot) + "\n" + m.renderMarkdown(e.text, width)
	case roleError:
		return theme.ErrorLabel.Render(theme.Symbols.Error+" Error") + "\n" + body.Render(e.text)
	default:
		return theme.Dim.Render(e.text)
	}
}

func (m *Model) renderMarkdown(content string, width int) string {
	if m.md == nil || m.mdWidth != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "  " + content
		}
		m.md, m.mdWidth = r, width
	}
	rendered, err := m.md.Render(content)
	if err != nil {
		return "  " + content
	}
	return strings.TrimRight(rendered, "\n")
}

// Run starts the terminal chat and blocks until the user quits.
func Run(ctx context.Context, chat domain.ChatService, threadID string) error {
	p := tea.NewProgram(NewModel(ctx, chat, threadID), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
