package entity

import (
	"testing"
	"time"

	"ragchat-client/internal/constant"
)

func TestMessageLifecycleTransitions(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		prepare   func(m *ChatMessage)
		apply     func(m *ChatMessage) error
		wantErr   error
		wantState LifecycleState
	}{
		{
			name:      "pending to delivered",
			prepare:   func(m *ChatMessage) {},
			apply:     func(m *ChatMessage) error { return m.MarkDelivered() },
			wantErr:   nil,
			wantState: LifecycleDelivered,
		},
		{
			name:      "pending to errored",
			prepare:   func(m *ChatMessage) {},
			apply:     func(m *ChatMessage) error { return m.MarkErrored("boom") },
			wantErr:   nil,
			wantState: LifecycleErrored,
		},
		{
			name:      "delivered is terminal",
			prepare:   func(m *ChatMessage) { _ = m.MarkDelivered() },
			apply:     func(m *ChatMessage) error { return m.MarkErrored("late failure") },
			wantErr:   ErrNotPending,
			wantState: LifecycleDelivered,
		},
		{
			name:      "errored is terminal",
			prepare:   func(m *ChatMessage) { _ = m.MarkErrored("boom") },
			apply:     func(m *ChatMessage) error { return m.MarkDelivered() },
			wantErr:   ErrNotPending,
			wantState: LifecycleErrored,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewUserMessage("hello", now)
			tt.prepare(m)

			err := tt.apply(m)
			if err != tt.wantErr {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if m.Lifecycle != tt.wantState {
				t.Errorf("Lifecycle = %q, want %q", m.Lifecycle, tt.wantState)
			}
		})
	}
}

func TestMarkErroredAttachesErrorText(t *testing.T) {
	m := NewUserMessage("hello", time.Now())
	if err := m.MarkErrored("internal failure"); err != nil {
		t.Fatalf("MarkErrored: %v", err)
	}
	if m.ErrorText != "internal failure" {
		t.Errorf("ErrorText = %q, want %q", m.ErrorText, "internal failure")
	}
}

func TestFeedbackUpSubmitsInOneStep(t *testing.T) {
	m := NewAssistantMessage("conv1", "hi", 1.2, nil, time.Now())

	if err := m.SubmitFeedback(constant.FeedbackTypeUp); err != nil {
		t.Fatalf("SubmitFeedback(up): %v", err)
	}
	if m.Feedback != FeedbackSubmitted {
		t.Errorf("Feedback = %q, want %q", m.Feedback, FeedbackSubmitted)
	}
}

func TestFeedbackDownRequiresReasonStep(t *testing.T) {
	m := NewAssistantMessage("conv1", "hi", 1.2, nil, time.Now())

	// Down straight from None is rejected; the reason step comes first.
	if err := m.SubmitFeedback(constant.FeedbackTypeDown); err != ErrFeedbackNotAwaiting {
		t.Fatalf("SubmitFeedback(down) from None: err = %v, want %v", err, ErrFeedbackNotAwaiting)
	}

	if err := m.BeginFeedbackReason(); err != nil {
		t.Fatalf("BeginFeedbackReason: %v", err)
	}
	if m.Feedback != FeedbackAwaitingReason {
		t.Fatalf("Feedback = %q, want %q", m.Feedback, FeedbackAwaitingReason)
	}

	if err := m.SubmitFeedback(constant.FeedbackTypeDown); err != nil {
		t.Fatalf("SubmitFeedback(down) from AwaitingReason: %v", err)
	}
	if m.Feedback != FeedbackSubmitted {
		t.Errorf("Feedback = %q, want %q", m.Feedback, FeedbackSubmitted)
	}
}

func TestFeedbackSubmittedIsTerminal(t *testing.T) {
	m := NewAssistantMessage("conv1", "hi", 1.2, nil, time.Now())
	_ = m.SubmitFeedback(constant.FeedbackTypeUp)

	if err := m.SubmitFeedback(constant.FeedbackTypeUp); err != ErrFeedbackAlreadyGiven {
		t.Errorf("second submit: err = %v, want %v", err, ErrFeedbackAlreadyGiven)
	}
	if err := m.BeginFeedbackReason(); err != ErrFeedbackAlreadyGiven {
		t.Errorf("BeginFeedbackReason after submit: err = %v, want %v", err, ErrFeedbackAlreadyGiven)
	}
	if m.Feedback != FeedbackSubmitted {
		t.Errorf("Feedback = %q, want %q", m.Feedback, FeedbackSubmitted)
	}
}

func TestFeedbackRejectedOnUserMessages(t *testing.T) {
	m := NewUserMessage("hello", time.Now())

	if err := m.SubmitFeedback(constant.FeedbackTypeUp); err != ErrNotAssistantMessage {
		t.Errorf("SubmitFeedback on user message: err = %v, want %v", err, ErrNotAssistantMessage)
	}
	if err := m.BeginFeedbackReason(); err != ErrNotAssistantMessage {
		t.Errorf("BeginFeedbackReason on user message: err = %v, want %v", err, ErrNotAssistantMessage)
	}
}

func TestNegativeResponseTimeClamped(t *testing.T) {
	m := NewAssistantMessage("conv1", "hi", -0.5, nil, time.Now())
	if m.ResponseTimeSeconds != 0 {
		t.Errorf("ResponseTimeSeconds = %v, want 0", m.ResponseTimeSeconds)
	}
}

func TestCloneIsDeep(t *testing.T) {
	src := []*ChatSource{{Id: "src1", Filename: "handbook.pdf", S3Uri: "s3://kb/handbook.pdf"}}
	m := NewAssistantMessage("conv1", "hi", 1.2, src, time.Now())

	c := m.Clone()
	c.Sources[0].PresignedUrl = "https://example.com/signed"
	c.Feedback = FeedbackSubmitted

	if m.Sources[0].PresignedUrl != "" {
		t.Error("clone mutation leaked into original source")
	}
	if m.Feedback != FeedbackNone {
		t.Error("clone mutation leaked into original feedback state")
	}
}
