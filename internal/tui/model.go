package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// ---------- messages sent from the chat loop via program.Send() ----------

type readInputMsg struct{}

type inputResult struct {
	text string
	err  error
}

type userMsg struct {
	text        string
	attachments []string
}
type thinkingStartMsg struct{}
type thinkingDoneMsg struct{}
type assistantMsg struct{ text string }
type systemMsg struct{ text string }
type errorMsg struct{ text string }
type statusMsg struct{ status Status }
type loopDoneMsg struct{ err error }

var errInterrupted = errors.New("interrupted")

// ---------- styles ----------

var (
	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("252"))

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	attachmentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			PaddingLeft(2)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")) // gray spinner

	welcomeTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))

	welcomeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("238")).
				Padding(0, 1)
)

// ---------- Model ----------

// Model is the bubbletea model. Finished output is printed above the
// program with tea.Println; View only draws the live area (spinner, input
// line, status bar).
type Model struct {
	textinput textinput.Model
	spinner   spinner.Model
	width     int

	inputMode bool
	thinking  bool
	quitting  bool
	status    Status

	inputCh chan inputResult
	cfg     TUIConfig

	mdRenderer      *glamour.TermRenderer
	mdRendererWidth int
}

// NewModel creates the initial bubbletea model.
func NewModel(inputCh chan inputResult, cfg TUIConfig) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "message, or /help"
	ti.CharLimit = 8192

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return Model{
		textinput: ti,
		spinner:   sp,
		inputCh:   inputCh,
		cfg:       cfg,
	}
}

func (m Model) Init() tea.Cmd {
	if m.cfg.ShowWelcome {
		return tea.Println(renderWelcome(m.cfg))
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.textinput.Width = m.width - 4 // account for prompt

	case spinner.TickMsg:
		if m.thinking {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d":
			// Unblock ReadInput now or on its next call.
			select {
			case m.inputCh <- inputResult{err: errInterrupted}:
			default:
			}
			m.inputMode = false
			m.textinput.Blur()
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if m.inputMode {
				text := strings.TrimSpace(m.textinput.Value())
				m.textinput.SetValue("")
				m.inputCh <- inputResult{text: text}
				m.inputMode = false
				m.textinput.Blur()
			}
			return m, nil
		}

		if m.inputMode {
			var cmd tea.Cmd
			m.textinput, cmd = m.textinput.Update(msg)
			cmds = append(cmds, cmd)
		}

	// ---------- custom messages from the chat loop ----------

	case readInputMsg:
		m.inputMode = true
		m.textinput.Focus()
		cmds = append(cmds, textinput.Blink)

	case userMsg:
		cmds = append(cmds, tea.Println(renderUser(msg.text, msg.attachments)))

	case thinkingStartMsg:
		m.thinking = true
		cmds = append(cmds, m.spinner.Tick)

	case thinkingDoneMsg:
		m.thinking = false

	case assistantMsg:
		m.thinking = false
		cmds = append(cmds, tea.Println(m.renderMarkdown(msg.text)))

	case systemMsg:
		cmds = append(cmds, tea.Println(systemStyle.Render(msg.text)))

	case errorMsg:
		cmds = append(cmds, tea.Println(errorStyle.Render("Error: "+msg.text)))

	case statusMsg:
		m.status = msg.status

	case loopDoneMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var parts []string
	if m.thinking {
		parts = append(parts, m.spinner.View()+systemStyle.Render(" Waiting for reply…"))
	}
	if m.inputMode {
		parts = append(parts, m.textinput.View())
	} else {
		parts = append(parts, systemStyle.Render(">"))
	}
	parts = append(parts, m.renderStatusBar())
	return strings.Join(parts, "\n")
}

func (m *Model) renderStatusBar() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	return separatorStyle.Render(strings.Repeat("─", width)) + "\n" +
		statusBarStyle.Width(width).Render(statusLine(m.status, width))
}

func renderUser(text string, attachments []string) string {
	out := userStyle.Render("You: " + text)
	for _, a := range attachments {
		out += "\n" + attachmentStyle.Render("📎 "+a)
	}
	return out
}

// ---------- markdown rendering ----------

func (m *Model) getMarkdownRenderer() *glamour.TermRenderer {
	width := m.width
	if width <= 0 {
		width = 80
	}
	wrapWidth := width - 4
	if m.mdRenderer != nil && m.mdRendererWidth == wrapWidth {
		return m.mdRenderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(wrapWidth),
	)
	if err != nil {
		return nil
	}
	m.mdRenderer = r
	m.mdRendererWidth = wrapWidth
	return r
}

func (m *Model) renderMarkdown(text string) string {
	if strings.TrimSpace(text) == "" {
		return systemStyle.Render("(empty reply)")
	}
	r := m.getMarkdownRenderer()
	if r == nil {
		return text
	}
	rendered, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n")
}

// RenderMarkdown renders text for a non-interactive terminal of the given
// width. It falls back to the raw text if glamour fails.
func RenderMarkdown(text string, width int) string {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// ---------- welcome banner ----------

func renderWelcome(cfg TUIConfig) string {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	lines := []string{
		"Backend: " + cfg.BaseURL,
		"",
		"/help commands  /attach <file> stage a file  /quit exit",
	}
	title := welcomeTitleStyle.Render(fmt.Sprintf("idchat %s", version))
	return title + "\n" + welcomeBorderStyle.Render(strings.Join(lines, "\n"))
}
