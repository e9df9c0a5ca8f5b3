package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github/itish2003/docsearch/models"
	"github/itish2003/docsearch/services"
)

const openCommand = "/open "

// DocumentLoadedMsg reports the outcome of a document upload, whether it came
// from /open or from the inbox watcher.
type DocumentLoadedMsg struct {
	Info *models.DocumentInfo
	Err  error
}

type turnMsg struct {
	mode models.Mode
	turn *models.Turn
	err  error
}

type revealTickMsg struct{}

// Model is the Bubble Tea model for the two-mode chat.
type Model struct {
	ctx      context.Context
	session  *services.Session
	docs     services.DocumentService
	search   services.WebSearchService
	delay    time.Duration
	mode     models.Mode
	input    textinput.Model
	viewport viewport.Model
	status   string
	ready    bool
	busy     bool
	// Set while an /open load is in flight; watcher loads never touch busy.
	loading bool

	// Prefixes of the newest turn still being revealed.
	reveal    []string
	revealIdx int
}

func New(ctx context.Context, session *services.Session, docs services.DocumentService, search services.WebSearchService, delay time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 0
	m := Model{
		ctx:      ctx,
		session:  session,
		docs:     docs,
		search:   search,
		delay:    delay,
		mode:     models.ModePDF,
		input:    ti,
		viewport: viewport.New(0, 0),
	}
	m.enterMode(models.ModePDF)
	return m
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m *Model) enterMode(mode models.Mode) {
	m.mode = mode
	m.reveal = nil
	switch mode {
	case models.ModeSearch:
		m.input.Placeholder = "Enter your search query"
		if err := m.search.Ready(); err != nil {
			m.status = "Configuration error: " + err.Error()
			return
		}
		m.status = "Search the Web"
	default:
		m.input.Placeholder = "Enter your question, or /open <file.pdf>"
		if err := m.docs.Ready(); err != nil {
			m.status = "Configuration error: " + err.Error()
			return
		}
		if doc, ok := m.session.Document(); ok {
			m.status = fmt.Sprintf("Chatting with %s", doc.Filename)
		} else {
			m.status = "Please upload a PDF file to begin."
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, hh := historyBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + ih + 1 // header, status, input box
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-hh)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyTab:
			if m.busy {
				return m, nil
			}
			if m.mode == models.ModePDF {
				m.enterMode(models.ModeSearch)
			} else {
				m.enterMode(models.ModePDF)
			}
			m.refresh()
			return m, nil
		case tea.KeyEnter:
			return m.submit()
		}

	case DocumentLoadedMsg:
		if m.loading {
			m.loading = false
			m.busy = false
		}
		if msg.Err != nil {
			m.status = "Error loading PDF: " + msg.Err.Error()
		} else {
			m.status = fmt.Sprintf("Uploaded successfully! %s: %d pages, %d chunks", msg.Info.Filename, msg.Info.Pages, msg.Info.Chunks)
		}
		return m, nil

	case turnMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		if msg.mode != m.mode {
			return m, nil
		}
		if msg.turn.IsError {
			m.status = msg.turn.Response
		}
		m.reveal = services.RevealSteps(msg.turn.Response)
		m.revealIdx = 0
		m.refresh()
		return m, m.tick()

	case revealTickMsg:
		if m.reveal == nil {
			return m, nil
		}
		m.revealIdx++
		if m.revealIdx >= len(m.reveal)-1 {
			m.reveal = nil
			m.refresh()
			return m, nil
		}
		m.refresh()
		return m, m.tick()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.busy {
		return m, nil
	}
	m.input.Reset()
	m.reveal = nil
	m.busy = true

	if m.mode == models.ModeSearch {
		m.status = "Searching the web..."
		return m, m.searchCmd(text)
	}
	if strings.HasPrefix(text, openCommand) {
		path := strings.TrimSpace(strings.TrimPrefix(text, openCommand))
		m.status = "Loading PDF..."
		m.loading = true
		return m, m.loadCmd(path)
	}
	m.status = "Generating response..."
	return m, m.askCmd(text)
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.delay, func(time.Time) tea.Msg { return revealTickMsg{} })
}

func (m Model) searchCmd(query string) tea.Cmd {
	return func() tea.Msg {
		turn, err := m.search.Search(m.ctx, m.session, query)
		return turnMsg{mode: models.ModeSearch, turn: turn, err: err}
	}
}

func (m Model) askCmd(question string) tea.Cmd {
	return func() tea.Msg {
		turn, _, err := m.docs.Ask(m.ctx, m.session, question)
		return turnMsg{mode: models.ModePDF, turn: turn, err: err}
	}
}

func (m Model) loadCmd(path string) tea.Cmd {
	return func() tea.Msg {
		info, err := m.docs.LoadFile(m.ctx, m.session, path)
		return DocumentLoadedMsg{Info: info, Err: err}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

// renderHistory replays the active mode's log. While a reveal is running the
// newest response is shown only up to the current prefix.
func (m Model) renderHistory() string {
	turns := m.session.Log(m.mode).Turns()
	if len(turns) == 0 {
		return "No messages yet."
	}
	var sb strings.Builder
	for i, t := range turns {
		response := t.Response
		if i == len(turns)-1 && m.reveal != nil && m.revealIdx < len(m.reveal) {
			response = m.reveal[m.revealIdx]
		}
		sb.WriteString(userStyle.Render("You: "))
		sb.WriteString(t.Question)
		sb.WriteString("\n")
		sb.WriteString(botStyle.Render("Bot: "))
		sb.WriteString(response)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("Chatbot with PDF and Web Search") + "  " + m.renderModes()
	history := historyBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	if strings.HasPrefix(m.status, "Error") || strings.HasPrefix(m.status, "Configuration error") {
		status = errorStyle.Render(m.status)
	}
	return header + "\n" + history + "\n" + input + "\n" + status
}

func (m Model) renderModes() string {
	pdf, web := "Chat with PDF", "Search the Web"
	if m.mode == models.ModePDF {
		return activeModeStyle.Render(pdf) + " " + modeStyle.Render(web) + hintStyle.Render("  (tab to switch)")
	}
	return modeStyle.Render(pdf) + " " + activeModeStyle.Render(web) + hintStyle.Render("  (tab to switch)")
}

// Mode reports the active mode.
func (m Model) Mode() models.Mode { return m.mode }

// Status reports the status line text.
func (m Model) Status() string { return m.status }

var (
	titleStyle      = lipgloss.NewStyle().Bold(true)
	modeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 1)
	activeModeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")).Padding(0, 1)
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	historyBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	userStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	botStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)
