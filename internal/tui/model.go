package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"ragchat-client/internal/config"
	"ragchat-client/internal/constant"
	"ragchat-client/internal/entity"
	"ragchat-client/internal/service"
)

// FocusRegion identifies where keystrokes go.
type FocusRegion int

const (
	// FocusComposer means input edits the outgoing message.
	FocusComposer FocusRegion = iota
	// FocusReason means input edits the thumbs-down reason for the
	// message held in AwaitingReason.
	FocusReason
)

// sendResultMsg is delivered when an asynchronous chat send resolves,
// successfully or not. The snapshot already reflects the lifecycle
// transition the service applied.
type sendResultMsg struct {
	snap service.Snapshot
	err  error
}

// feedbackResultMsg is delivered when a feedback action has been recorded.
type feedbackResultMsg struct {
	snap service.Snapshot
	err  error
}

// sourceResolvedMsg carries a lazily resolved presigned URL.
type sourceResolvedMsg struct {
	sourceId string
	url      string
	err      error
}

// Model drives the chat screen. Every user action and every network
// completion funnels through Update as one atomic transition over the
// latest service snapshot; nothing mutates conversation state directly.
type Model struct {
	controller service.ISessionService
	ui         config.UIConfig
	styles     Styles

	snap service.Snapshot

	composer    textinput.Model
	reasonInput textinput.Model
	focus       FocusRegion

	// sending enforces the at-most-one-in-flight-send contract: the
	// composer is refused until the current send resolves.
	sending bool

	// reasonTarget is the assistant message id awaiting a thumbs-down
	// reason while the reason input is open.
	reasonTarget string

	filters   []string
	filterIdx int // index into filters; -1 means no filter selected

	status string
	width  int
	quit   bool
}

func NewModel(controller service.ISessionService, ui config.UIConfig) Model {
	composer := textinput.New()
	composer.Placeholder = "Ask a question..."
	composer.Focus()
	composer.CharLimit = 2000

	reason := textinput.New()
	reason.Placeholder = "What was wrong with this answer?"
	reason.CharLimit = 1000

	return Model{
		controller:  controller,
		ui:          ui,
		styles:      NewStyles(ui),
		snap:        controller.Snapshot(),
		composer:    composer,
		reasonInput: reason,
		focus:       FocusComposer,
		filters:     ui.SchoolFilters,
		filterIdx:   -1,
		width:       80,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case sendResultMsg:
		m.sending = false
		if msg.err == service.ErrSessionSuperseded {
			// Late completion after a clear: the snapshot in the message
			// is already the post-clear state, nothing else to do.
			m.snap = msg.snap
			return m, nil
		}
		m.snap = msg.snap
		if msg.err != nil {
			m.status = "send failed - see the message marker above"
		} else {
			m.status = ""
		}
		return m, nil

	case feedbackResultMsg:
		if msg.err == nil {
			m.snap = msg.snap
		}
		return m, nil

	case sourceResolvedMsg:
		if msg.err != nil {
			m.status = "could not resolve source link"
			return m, nil
		}
		m.snap = m.controller.Snapshot()
		m.status = msg.url
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateInputs(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quit = true
		return m, tea.Quit

	case "esc":
		if m.focus == FocusReason {
			// Hide the input; the message stays in AwaitingReason until
			// an explicit submit, however long that takes.
			m.focus = FocusComposer
			m.reasonInput.Blur()
			m.composer.Focus()
			return m, nil
		}
		m.quit = true
		return m, tea.Quit

	case "ctrl+l":
		m.snap = m.controller.ClearSession()
		m.sending = false
		m.focus = FocusComposer
		m.reasonTarget = ""
		m.reasonInput.Blur()
		m.reasonInput.SetValue("")
		m.composer.Focus()
		m.status = "conversation cleared"
		return m, nil

	case "ctrl+f":
		if len(m.filters) > 0 {
			m.filterIdx++
			if m.filterIdx >= len(m.filters) {
				m.filterIdx = -1
			}
		}
		return m, nil

	case "ctrl+p":
		m.status = m.metricsLine()
		return m, nil

	case "ctrl+u":
		return m.rateLastAssistant(constant.FeedbackTypeUp)

	case "ctrl+d":
		return m.beginThumbsDown()

	case "ctrl+o":
		return m.resolveLastSources()

	case "enter":
		if m.focus == FocusReason {
			return m.submitReason()
		}
		return m.submitComposer()
	}

	return m.updateInputs(msg)
}

func (m Model) submitComposer() (tea.Model, tea.Cmd) {
	if m.sending {
		// One in-flight send per session: further sends are refused, not
		// queued, until the current one resolves.
		m.status = "still waiting for the previous answer"
		return m, nil
	}
	text := strings.TrimSpace(m.composer.Value())
	if text == "" {
		return m, nil
	}

	m.composer.SetValue("")
	m.sending = true
	m.status = "thinking..."

	controller := m.controller
	filter := m.selectedFilter()
	return m, func() tea.Msg {
		snap, err := controller.AppendUserMessageAndSend(context.Background(), text, filter)
		return sendResultMsg{snap: snap, err: err}
	}
}

func (m Model) rateLastAssistant(feedbackType string) (tea.Model, tea.Cmd) {
	target := m.lastAssistant()
	if target == nil || target.Feedback == entity.FeedbackSubmitted {
		return m, nil
	}

	controller := m.controller
	id := target.Id
	return m, func() tea.Msg {
		snap, err := controller.RecordFeedback(context.Background(), id, feedbackType, "")
		return feedbackResultMsg{snap: snap, err: err}
	}
}

func (m Model) beginThumbsDown() (tea.Model, tea.Cmd) {
	target := m.lastAssistant()
	if target == nil || target.Feedback == entity.FeedbackSubmitted {
		return m, nil
	}

	m.reasonTarget = target.Id
	m.focus = FocusReason
	m.composer.Blur()
	m.reasonInput.SetValue("")
	m.reasonInput.Focus()

	if target.Feedback == entity.FeedbackAwaitingReason {
		// Already parked awaiting a reason (e.g. input was dismissed
		// earlier); just reopen the input without touching the service.
		return m, nil
	}

	controller := m.controller
	id := target.Id
	return m, func() tea.Msg {
		snap, err := controller.RecordFeedback(context.Background(), id, constant.FeedbackTypeDown, "")
		return feedbackResultMsg{snap: snap, err: err}
	}
}

func (m Model) submitReason() (tea.Model, tea.Cmd) {
	reason := strings.TrimSpace(m.reasonInput.Value())
	target := m.reasonTarget

	m.focus = FocusComposer
	m.reasonTarget = ""
	m.reasonInput.Blur()
	m.reasonInput.SetValue("")
	m.composer.Focus()

	controller := m.controller
	return m, func() tea.Msg {
		snap, err := controller.RecordFeedback(context.Background(), target, constant.FeedbackTypeDown, reason)
		return feedbackResultMsg{snap: snap, err: err}
	}
}

func (m Model) resolveLastSources() (tea.Model, tea.Cmd) {
	target := m.lastAssistant()
	if target == nil || len(target.Sources) == 0 {
		return m, nil
	}

	controller := m.controller
	msgId := target.Id
	var cmds []tea.Cmd
	for _, src := range target.Sources {
		if src.Resolved() {
			continue
		}
		sourceId := src.Id
		cmds = append(cmds, func() tea.Msg {
			url, err := controller.ResolveSource(context.Background(), msgId, sourceId)
			return sourceResolvedMsg{sourceId: sourceId, url: url, err: err}
		})
	}
	if len(cmds) == 0 {
		m.status = "source links already resolved"
		return m, nil
	}
	m.status = "resolving source links..."
	return m, tea.Batch(cmds...)
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == FocusReason {
		m.reasonInput, cmd = m.reasonInput.Update(msg)
	} else {
		m.composer, cmd = m.composer.Update(msg)
	}
	return m, cmd
}

func (m Model) lastAssistant() *entity.ChatMessage {
	for i := len(m.snap.Messages) - 1; i >= 0; i-- {
		if m.snap.Messages[i].IsAssistant() {
			return m.snap.Messages[i]
		}
	}
	return nil
}

func (m Model) selectedFilter() string {
	if m.filterIdx < 0 || m.filterIdx >= len(m.filters) {
		return ""
	}
	return m.filters[m.filterIdx]
}

func (m Model) metricsLine() string {
	summary := m.controller.Metrics()
	return fmt.Sprintf("%d messages | %d answered | %d failed | avg %.2fs",
		summary.MessageCount, summary.DeliveredExchanges, summary.ErroredExchanges,
		summary.AverageResponseTimeSeconds)
}

func (m Model) View() string {
	if m.quit {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.styles.Header.Render(m.ui.ChatbotName))
	b.WriteString("\n")
	b.WriteString(m.styles.Description.Render(m.ui.ChatbotDescription))
	b.WriteString("\n\n")

	if len(m.snap.Messages) == 0 {
		b.WriteString(m.styles.Assistant.Render(m.ui.Greeting))
		b.WriteString("\n")
	}

	for _, msg := range m.snap.Messages {
		b.WriteString(m.renderMessage(msg))
	}

	if m.sending {
		b.WriteString(m.styles.Meta.Render("  ..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.focus == FocusReason {
		b.WriteString("Reason for thumbs-down (enter to submit, esc to dismiss):\n")
		b.WriteString(m.reasonInput.View())
	} else {
		b.WriteString(m.composer.View())
	}
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(m.styles.StatusBar.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Help.Render(m.helpLine()))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderMessage(msg *entity.ChatMessage) string {
	var b strings.Builder

	if msg.IsAssistant() {
		b.WriteString(m.styles.AssistantName.Render(m.ui.ChatbotName))
		b.WriteString(m.styles.Meta.Render(fmt.Sprintf("  (%.2fs)", msg.ResponseTimeSeconds)))
		b.WriteString(feedbackMarker(msg.Feedback))
		b.WriteString("\n")
		b.WriteString(m.styles.Assistant.Render(msg.Content))
		b.WriteString("\n")
		for _, src := range msg.Sources {
			label := src.Filename
			if src.Resolved() {
				label += " -> " + src.PresignedUrl
			}
			b.WriteString("  ")
			b.WriteString(m.styles.Source.Render(label))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(m.styles.UserLabel.Render("You"))
		b.WriteString("\n")
		b.WriteString(m.styles.UserBubble.Render(msg.Content))
		b.WriteString("\n")
		if msg.Lifecycle == entity.LifecycleErrored {
			b.WriteString("  ")
			b.WriteString(m.styles.ErrorText.Render("failed: " + msg.ErrorText))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) helpLine() string {
	help := "enter send | ctrl+u/ctrl+d rate last answer | ctrl+o sources | ctrl+l clear | ctrl+p stats | ctrl+c quit"
	if len(m.filters) > 0 {
		selected := m.selectedFilter()
		if selected == "" {
			selected = "all"
		}
		help += " | ctrl+f filter: " + selected
	}
	return help
}

func feedbackMarker(state entity.FeedbackState) string {
	switch state {
	case entity.FeedbackSubmitted:
		return "  [rated]"
	case entity.FeedbackAwaitingReason:
		return "  [reason?]"
	default:
		return ""
	}
}
