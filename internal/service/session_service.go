package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ragchat-client/internal/constant"
	"ragchat-client/internal/dto"
	"ragchat-client/internal/entity"
	"ragchat-client/internal/metrics"
	"ragchat-client/internal/pkg/logger"
	"ragchat-client/internal/repository/memory"
	"ragchat-client/pkg/chatclient"
)

var (
	// ErrSessionSuperseded means a remote completion arrived after the
	// session it belonged to was cleared. The result is discarded.
	ErrSessionSuperseded = errors.New("session was cleared before the response arrived")

	// ErrInvalidFeedbackTarget means feedback was aimed at a message that
	// does not exist or is not an assistant message.
	ErrInvalidFeedbackTarget = errors.New("feedback target is not a rateable assistant message")

	ErrSourceNotFound = errors.New("source not found on message")
)

// ValidationError rejects input before any network call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Snapshot is an immutable copy of session state for the UI to render.
// Mutating it has no effect on the live session.
type Snapshot struct {
	SessionId string
	CreatedAt time.Time
	Messages  []*entity.ChatMessage
}

// ISessionService is the single owner of the message log and session id.
// All conversation state flows through it; everything else renders
// snapshots.
type ISessionService interface {
	InitSession() Snapshot
	AppendUserMessageAndSend(ctx context.Context, text, selectedSchool string) (Snapshot, error)
	RecordFeedback(ctx context.Context, messageId, feedbackType, reasonText string) (Snapshot, error)
	ResolveSource(ctx context.Context, messageId, sourceId string) (string, error)
	ClearSession() Snapshot
	Snapshot() Snapshot
	Metrics() metrics.Summary
}

type sessionService struct {
	client      chatclient.IChatClient
	transcripts *memory.TranscriptRepository
	log         logger.ILogger
	now         func() time.Time

	mu       sync.Mutex
	session  *entity.ChatSession
	messages []*entity.ChatMessage
}

func NewSessionService(client chatclient.IChatClient, transcripts *memory.TranscriptRepository, log logger.ILogger) ISessionService {
	if log == nil {
		log = logger.NopLogger{}
	}
	s := &sessionService{
		client:      client,
		transcripts: transcripts,
		log:         log,
		now:         time.Now,
	}
	s.InitSession()
	return s
}

// InitSession starts a fresh session, archiving any existing transcript.
// Safe to call repeatedly; each call is a full clear.
func (s *sessionService) InitSession() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.archiveLocked()

	s.session = entity.NewChatSession(s.now())
	s.messages = nil

	s.log.Info("session", "session initialized", map[string]interface{}{
		"session_id": s.session.Id.String(),
	})
	return s.snapshotLocked()
}

func (s *sessionService) ClearSession() Snapshot {
	return s.InitSession()
}

// AppendUserMessageAndSend appends a Pending user message, issues the
// remote call, and applies the resulting lifecycle transition. The caller
// is responsible for allowing only one in-flight send per session; this
// method does not queue or serialize sends, but it does discard a
// completion whose session was cleared while the call was in flight.
func (s *sessionService) AppendUserMessageAndSend(ctx context.Context, text, selectedSchool string) (Snapshot, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return s.Snapshot(), &ValidationError{Reason: "message must not be empty"}
	}

	s.mu.Lock()
	userMsg := entity.NewUserMessage(trimmed, s.now())
	s.messages = append(s.messages, userMsg)
	sessionId := s.session.Id.String()
	userMsgId := userMsg.Id
	s.mu.Unlock()

	reply, sendErr := s.client.SendChatMessage(ctx, trimmed, sessionId, selectedSchool)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Guard against a stale completion: the session may have been cleared
	// (new id, empty log) while the request was in flight. The pending
	// message check covers any future path that resolves a message twice.
	if s.session.Id.String() != sessionId {
		s.log.Warn("session", "discarding stale completion", map[string]interface{}{
			"stale_session_id": sessionId,
		})
		return s.snapshotLocked(), ErrSessionSuperseded
	}
	pending := s.findMessageLocked(userMsgId)
	if pending == nil || pending.Lifecycle != entity.LifecyclePending {
		return s.snapshotLocked(), ErrSessionSuperseded
	}

	if sendErr != nil {
		_ = pending.MarkErrored(displayError(sendErr))
		s.log.Error("session", "chat send failed", map[string]interface{}{
			"session_id": sessionId,
			"message_id": userMsgId,
			"error":      sendErr.Error(),
		})
		return s.snapshotLocked(), sendErr
	}

	// Delivery is atomic with assistant creation: both happen under the
	// same lock hold, so no snapshot can observe one without the other.
	_ = pending.MarkDelivered()
	assistant := entity.NewAssistantMessage(
		reply.MessageId,
		reply.Response,
		reply.ResponseTime,
		sourcesFromReply(reply.Sources),
		s.now(),
	)
	s.messages = append(s.messages, assistant)

	return s.snapshotLocked(), nil
}

// RecordFeedback drives the feedback workflow for one assistant message.
//
// Thumbs-up submits immediately. Thumbs-down with no reason parks the
// message in AwaitingReason without a network call; a later call carrying
// the reason performs the submit. In both submit paths the state moves to
// Submitted even when the network call fails: feedback is a non-critical
// write and the UI must not re-prompt over it. The dropped write is logged.
func (s *sessionService) RecordFeedback(ctx context.Context, messageId, feedbackType, reasonText string) (Snapshot, error) {
	s.mu.Lock()

	msg := s.findMessageLocked(messageId)
	if msg == nil || !msg.IsAssistant() {
		s.mu.Unlock()
		return s.Snapshot(), ErrInvalidFeedbackTarget
	}
	if msg.Feedback == entity.FeedbackSubmitted {
		// Controls stay disabled after submit; a repeat is a no-op.
		s.mu.Unlock()
		return s.Snapshot(), nil
	}

	sessionId := s.session.Id.String()

	if feedbackType == constant.FeedbackTypeDown && msg.Feedback == entity.FeedbackNone {
		err := msg.BeginFeedbackReason()
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, err
	}

	if err := msg.SubmitFeedback(feedbackType); err != nil {
		s.mu.Unlock()
		return s.Snapshot(), err
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	// Network write happens outside the lock: feedback submissions for
	// different messages may overlap each other and any in-flight send.
	if err := s.client.SubmitFeedback(ctx, messageId, sessionId, feedbackType, reasonText); err != nil {
		s.log.Warn("session", "feedback write dropped", map[string]interface{}{
			"session_id":    sessionId,
			"message_id":    messageId,
			"feedback_type": feedbackType,
			"error":         err.Error(),
		})
	}

	return snap, nil
}

// ResolveSource lazily exchanges a cited source for a presigned URL and
// caches it on the source.
func (s *sessionService) ResolveSource(ctx context.Context, messageId, sourceId string) (string, error) {
	s.mu.Lock()
	msg := s.findMessageLocked(messageId)
	if msg == nil {
		s.mu.Unlock()
		return "", ErrSourceNotFound
	}
	var source *entity.ChatSource
	for _, src := range msg.Sources {
		if src.Id == sourceId {
			source = src
			break
		}
	}
	if source == nil {
		s.mu.Unlock()
		return "", ErrSourceNotFound
	}
	if source.Resolved() {
		url := source.PresignedUrl
		s.mu.Unlock()
		return url, nil
	}
	s3Uri := source.S3Uri
	s.mu.Unlock()

	presigned, err := s.client.ResolveSourceURL(ctx, sourceId, s3Uri)
	if err != nil {
		return "", fmt.Errorf("resolve source %s: %w", sourceId, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if current := s.findMessageLocked(messageId); current != nil {
		for _, src := range current.Sources {
			if src.Id == sourceId {
				src.PresignedUrl = presigned
			}
		}
	}
	return presigned, nil
}

func (s *sessionService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *sessionService) Metrics() metrics.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return metrics.Compute(s.messages)
}

func (s *sessionService) snapshotLocked() Snapshot {
	msgs := make([]*entity.ChatMessage, len(s.messages))
	for i, m := range s.messages {
		msgs[i] = m.Clone()
	}
	return Snapshot{
		SessionId: s.session.Id.String(),
		CreatedAt: s.session.CreatedAt,
		Messages:  msgs,
	}
}

func (s *sessionService) findMessageLocked(id string) *entity.ChatMessage {
	for _, m := range s.messages {
		if m.Id == id {
			return m
		}
	}
	return nil
}

func (s *sessionService) archiveLocked() {
	if s.transcripts == nil || s.session == nil || len(s.messages) == 0 {
		return
	}
	s.transcripts.Save(&memory.Transcript{
		SessionId:  s.session.Id.String(),
		CreatedAt:  s.session.CreatedAt,
		ArchivedAt: s.now(),
		Messages:   s.messages,
	})
}

func sourcesFromReply(in []*dto.SourceDTO) []*entity.ChatSource {
	if len(in) == 0 {
		return nil
	}
	out := make([]*entity.ChatSource, 0, len(in))
	for i, src := range in {
		id := src.Id
		if id == "" {
			id = fmt.Sprintf("source-%d", i+1)
		}
		out = append(out, &entity.ChatSource{
			Id:           id,
			Filename:     src.Filename,
			S3Uri:        src.S3Uri,
			PresignedUrl: src.PresignedUrl,
		})
	}
	return out
}

// displayError turns a client failure into the text shown beside the
// errored user message. Server-supplied messages pass through verbatim.
func displayError(err error) string {
	var serverErr *chatclient.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Message
	}
	var timeoutErr *chatclient.TimeoutError
	if errors.As(err, &timeoutErr) {
		return "The request timed out. Please try again."
	}
	return "Could not reach the server. Please check your connection and try again."
}
