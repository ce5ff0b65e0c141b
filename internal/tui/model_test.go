package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat-client/internal/config"
	"ragchat-client/internal/constant"
	"ragchat-client/internal/entity"
	"ragchat-client/internal/metrics"
	"ragchat-client/internal/service"
)

// fakeController records the calls the model makes. It never does I/O, so
// commands returned by Update can be invoked inline.
type fakeController struct {
	snap service.Snapshot

	sends    []string
	filters  []string
	feedback [][3]string // messageId, feedbackType, reason
	resolves [][2]string
	cleared  int
}

func (f *fakeController) InitSession() service.Snapshot { return f.snap }

func (f *fakeController) AppendUserMessageAndSend(_ context.Context, text, selectedSchool string) (service.Snapshot, error) {
	f.sends = append(f.sends, text)
	f.filters = append(f.filters, selectedSchool)
	return f.snap, nil
}

func (f *fakeController) RecordFeedback(_ context.Context, messageId, feedbackType, reasonText string) (service.Snapshot, error) {
	f.feedback = append(f.feedback, [3]string{messageId, feedbackType, reasonText})
	return f.snap, nil
}

func (f *fakeController) ResolveSource(_ context.Context, messageId, sourceId string) (string, error) {
	f.resolves = append(f.resolves, [2]string{messageId, sourceId})
	return "https://signed.example.com/doc.pdf", nil
}

func (f *fakeController) ClearSession() service.Snapshot {
	f.cleared++
	f.snap = service.Snapshot{SessionId: "fresh", Messages: nil}
	return f.snap
}

func (f *fakeController) Snapshot() service.Snapshot { return f.snap }

func (f *fakeController) Metrics() metrics.Summary {
	return metrics.Compute(f.snap.Messages)
}

func snapshotWithAssistant(t *testing.T, feedback entity.FeedbackState) service.Snapshot {
	t.Helper()
	now := time.Now()
	user := entity.NewUserMessage("Hello", now)
	require.NoError(t, user.MarkDelivered())
	assistant := entity.NewAssistantMessage("conv1", "Hi there!", 1.2, nil, now)
	assistant.Feedback = feedback
	return service.Snapshot{
		SessionId: "abc",
		Messages:  []*entity.ChatMessage{user, assistant},
	}
}

func typeAndEnter(m Model, text string) (Model, tea.Cmd) {
	m.composer.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func TestSendIssuesCommandAndBlocksComposer(t *testing.T) {
	ctrl := &fakeController{snap: service.Snapshot{SessionId: "abc"}}
	m := NewModel(ctrl, config.UIConfig{ChatbotName: "Bot"})

	m, cmd := typeAndEnter(m, "Hello")
	require.NotNil(t, cmd)
	assert.True(t, m.sending)

	// A second enter while the first send is unresolved must be refused:
	// no new command, no queued text.
	m, cmd2 := typeAndEnter(m, "again")
	assert.Nil(t, cmd2)

	// Run the first command; exactly one send reached the controller.
	msg := cmd()
	require.IsType(t, sendResultMsg{}, msg)
	assert.Equal(t, []string{"Hello"}, ctrl.sends)

	next, _ := m.Update(msg)
	m = next.(Model)
	assert.False(t, m.sending, "composer re-enabled once the send resolves")
}

func TestBlankComposerDoesNothing(t *testing.T) {
	ctrl := &fakeController{snap: service.Snapshot{SessionId: "abc"}}
	m := NewModel(ctrl, config.UIConfig{})

	_, cmd := typeAndEnter(m, "   ")
	assert.Nil(t, cmd)
	assert.Empty(t, ctrl.sends)
}

func TestThumbsUpTargetsLastAssistant(t *testing.T) {
	ctrl := &fakeController{snap: snapshotWithAssistant(t, entity.FeedbackNone)}
	m := NewModel(ctrl, config.UIConfig{})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	m = next.(Model)
	require.NotNil(t, cmd)

	cmd()
	require.Len(t, ctrl.feedback, 1)
	assert.Equal(t, [3]string{"conv1", constant.FeedbackTypeUp, ""}, ctrl.feedback[0])
}

func TestThumbsUpIgnoredWhenAlreadySubmitted(t *testing.T) {
	ctrl := &fakeController{snap: snapshotWithAssistant(t, entity.FeedbackSubmitted)}
	m := NewModel(ctrl, config.UIConfig{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	assert.Nil(t, cmd)
	assert.Empty(t, ctrl.feedback)
}

func TestThumbsDownFlow(t *testing.T) {
	ctrl := &fakeController{snap: snapshotWithAssistant(t, entity.FeedbackNone)}
	m := NewModel(ctrl, config.UIConfig{})

	// Tap: parks the message and opens the reason input.
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, FocusReason, m.focus)

	cmd()
	require.Len(t, ctrl.feedback, 1)
	assert.Equal(t, [3]string{"conv1", constant.FeedbackTypeDown, ""}, ctrl.feedback[0])

	// Submit the reason.
	m.reasonInput.SetValue("answer was off topic")
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, FocusComposer, m.focus)

	cmd()
	require.Len(t, ctrl.feedback, 2)
	assert.Equal(t, [3]string{"conv1", constant.FeedbackTypeDown, "answer was off topic"}, ctrl.feedback[1])
}

func TestEscDismissesReasonInputWithoutSubmitting(t *testing.T) {
	ctrl := &fakeController{snap: snapshotWithAssistant(t, entity.FeedbackAwaitingReason)}
	m := NewModel(ctrl, config.UIConfig{})

	// Reopening for an already-parked message touches nothing.
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	m = next.(Model)
	assert.Nil(t, cmd)
	assert.Equal(t, FocusReason, m.focus)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	assert.Equal(t, FocusComposer, m.focus)
	assert.Empty(t, ctrl.feedback)
}

func TestClearResetsEverything(t *testing.T) {
	ctrl := &fakeController{snap: snapshotWithAssistant(t, entity.FeedbackNone)}
	m := NewModel(ctrl, config.UIConfig{})
	m.sending = true

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	m = next.(Model)

	assert.Equal(t, 1, ctrl.cleared)
	assert.False(t, m.sending)
	assert.Empty(t, m.snap.Messages)
}

func TestFilterCycling(t *testing.T) {
	ctrl := &fakeController{snap: service.Snapshot{SessionId: "abc"}}
	m := NewModel(ctrl, config.UIConfig{SchoolFilters: []string{"north", "south"}})

	assert.Equal(t, "", m.selectedFilter())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	m = next.(Model)
	assert.Equal(t, "north", m.selectedFilter())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	m = next.(Model)
	assert.Equal(t, "south", m.selectedFilter())

	// Wraps back to no filter.
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	m = next.(Model)
	assert.Equal(t, "", m.selectedFilter())

	// The active filter rides along on sends.
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	m = next.(Model)
	m, cmd := typeAndEnter(m, "Hello")
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, []string{"north"}, ctrl.filters)
}

func TestResolveSourcesSkipsResolved(t *testing.T) {
	snap := snapshotWithAssistant(t, entity.FeedbackNone)
	snap.Messages[1].Sources = []*entity.ChatSource{
		{Id: "src1", Filename: "a.pdf", S3Uri: "s3://kb/a.pdf"},
		{Id: "src2", Filename: "b.pdf", S3Uri: "s3://kb/b.pdf", PresignedUrl: "https://already.example.com"},
	}
	ctrl := &fakeController{snap: snap}
	m := NewModel(ctrl, config.UIConfig{})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	m = next.(Model)
	require.NotNil(t, cmd)

	runCmd(cmd)
	require.Len(t, ctrl.resolves, 1)
	assert.Equal(t, [2]string{"conv1", "src1"}, ctrl.resolves[0])
}

func TestViewShowsErroredMarker(t *testing.T) {
	now := time.Now()
	user := entity.NewUserMessage("Hello", now)
	require.NoError(t, user.MarkErrored("internal failure"))
	ctrl := &fakeController{snap: service.Snapshot{
		SessionId: "abc",
		Messages:  []*entity.ChatMessage{user},
	}}
	m := NewModel(ctrl, config.UIConfig{ChatbotName: "Bot"})

	view := m.View()
	assert.Contains(t, view, "internal failure")
}

// runCmd executes a command and, for batches, all of its children.
func runCmd(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			runCmd(c)
		}
	}
}
