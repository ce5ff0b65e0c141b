package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"ragchat-client/internal/constant"
)

// LifecycleState tracks a message from submission to delivery or error.
// Delivered and Errored are terminal.
type LifecycleState string

const (
	LifecyclePending   LifecycleState = "pending"
	LifecycleDelivered LifecycleState = "delivered"
	LifecycleErrored   LifecycleState = "errored"
)

// FeedbackState tracks the thumbs-up/down workflow of one assistant message.
// Transitions are monotonic: None -> Submitted, or
// None -> AwaitingReason -> Submitted. Submitted is terminal.
type FeedbackState string

const (
	FeedbackNone           FeedbackState = "none"
	FeedbackAwaitingReason FeedbackState = "awaiting_reason"
	FeedbackSubmitted      FeedbackState = "submitted"
)

var (
	ErrNotPending           = errors.New("message is not pending")
	ErrNotAssistantMessage  = errors.New("feedback applies to assistant messages only")
	ErrFeedbackNotAwaiting  = errors.New("feedback is not awaiting a reason")
	ErrFeedbackAlreadyGiven = errors.New("feedback already submitted")
)

// ChatMessage is one turn in the conversation. User messages start Pending
// and end Delivered or Errored; assistant messages are created Delivered
// with the server-assigned id so feedback can reference them.
type ChatMessage struct {
	Id        string
	Role      string
	Content   string
	CreatedAt time.Time

	Lifecycle LifecycleState
	// ErrorText holds the human-readable failure shown next to an
	// errored user message.
	ErrorText string

	// Assistant-only fields. ResponseTimeSeconds is meaningful only when
	// Lifecycle is Delivered.
	ResponseTimeSeconds float64
	Sources             []*ChatSource
	Feedback            FeedbackState
}

// NewUserMessage creates a Pending user message. The id is local (uuid);
// the server never needs to address user messages.
func NewUserMessage(content string, now time.Time) *ChatMessage {
	return &ChatMessage{
		Id:        uuid.NewString(),
		Role:      constant.ChatMessageRoleUser,
		Content:   content,
		CreatedAt: now,
		Lifecycle: LifecyclePending,
	}
}

// NewAssistantMessage creates a Delivered assistant message from a server
// reply. The server-assigned id (conv<N>) is kept because the feedback
// endpoint addresses messages by it; a local uuid is substituted when the
// server omits one.
func NewAssistantMessage(id, content string, responseTime float64, sources []*ChatSource, now time.Time) *ChatMessage {
	if id == "" {
		id = uuid.NewString()
	}
	if responseTime < 0 {
		responseTime = 0
	}
	return &ChatMessage{
		Id:                  id,
		Role:                constant.ChatMessageRoleAssistant,
		Content:             content,
		CreatedAt:           now,
		Lifecycle:           LifecycleDelivered,
		ResponseTimeSeconds: responseTime,
		Sources:             sources,
		Feedback:            FeedbackNone,
	}
}

func (m *ChatMessage) IsAssistant() bool {
	return m.Role == constant.ChatMessageRoleAssistant
}

// MarkDelivered moves a Pending message to Delivered. Terminal states are
// never left, so a stale completion against an already-resolved message is
// rejected rather than applied.
func (m *ChatMessage) MarkDelivered() error {
	if m.Lifecycle != LifecyclePending {
		return ErrNotPending
	}
	m.Lifecycle = LifecycleDelivered
	return nil
}

// MarkErrored moves a Pending message to Errored and attaches the display
// text for the failure.
func (m *ChatMessage) MarkErrored(errorText string) error {
	if m.Lifecycle != LifecyclePending {
		return ErrNotPending
	}
	m.Lifecycle = LifecycleErrored
	m.ErrorText = errorText
	return nil
}

// BeginFeedbackReason moves feedback from None to AwaitingReason. No network
// call happens here; the caller collects free text and submits later. The
// message stays in AwaitingReason indefinitely until that submit.
func (m *ChatMessage) BeginFeedbackReason() error {
	if !m.IsAssistant() {
		return ErrNotAssistantMessage
	}
	switch m.Feedback {
	case FeedbackNone:
		m.Feedback = FeedbackAwaitingReason
		return nil
	case FeedbackSubmitted:
		return ErrFeedbackAlreadyGiven
	default:
		return nil
	}
}

// SubmitFeedback moves feedback to its terminal Submitted state. Thumbs-up
// submits straight from None; thumbs-down requires the AwaitingReason step
// first. Submitted never reverts.
func (m *ChatMessage) SubmitFeedback(feedbackType string) error {
	if !m.IsAssistant() {
		return ErrNotAssistantMessage
	}
	switch m.Feedback {
	case FeedbackSubmitted:
		return ErrFeedbackAlreadyGiven
	case FeedbackNone:
		if feedbackType == constant.FeedbackTypeDown {
			return ErrFeedbackNotAwaiting
		}
	}
	m.Feedback = FeedbackSubmitted
	return nil
}

// Clone returns a deep copy so snapshots handed to the UI cannot observe
// later mutation.
func (m *ChatMessage) Clone() *ChatMessage {
	c := *m
	if m.Sources != nil {
		c.Sources = make([]*ChatSource, len(m.Sources))
		for i, s := range m.Sources {
			c.Sources[i] = s.Clone()
		}
	}
	return &c
}
