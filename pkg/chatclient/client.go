package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"ragchat-client/internal/constant"
	"ragchat-client/internal/dto"
	"ragchat-client/internal/pkg/logger"
)

// IChatClient is the stateless adapter for the three remote operations.
// Calls are safe to repeat but never retried automatically, and no
// in-flight cap is enforced here; backpressure belongs to the caller.
type IChatClient interface {
	SendChatMessage(ctx context.Context, message, sessionId, selectedSchool string) (*dto.SendChatResponse, error)
	SubmitFeedback(ctx context.Context, messageId, sessionId, feedbackType, feedbackText string) error
	ResolveSourceURL(ctx context.Context, sourceId, s3Uri string) (string, error)
}

type ChatClient struct {
	baseURL    string
	httpClient *http.Client
	log        logger.ILogger
}

type Option func(*ChatClient)

// WithTimeout overrides the fixed 30s request timeout. Meant for tests;
// production callers keep the contract default.
func WithTimeout(d time.Duration) Option {
	return func(c *ChatClient) {
		c.httpClient.Timeout = d
	}
}

func WithLogger(log logger.ILogger) Option {
	return func(c *ChatClient) {
		c.log = log
	}
}

func NewChatClient(baseURL string, opts ...Option) *ChatClient {
	c := &ChatClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: constant.RequestTimeout,
		},
		log: logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendChatMessage posts one user message and returns the assistant reply
// with its server-side response time and cited sources.
func (c *ChatClient) SendChatMessage(ctx context.Context, message, sessionId, selectedSchool string) (*dto.SendChatResponse, error) {
	const op = "send chat message"

	payload := dto.SendChatRequest{
		Message:        message,
		SessionId:      sessionId,
		SelectedSchool: selectedSchool,
	}

	body, err := c.postJSON(ctx, op, constant.ChatEndpoint, payload)
	if err != nil {
		return nil, err
	}

	var reply dto.SendChatResponse
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("%s: unmarshal response: %w", op, err)
	}

	c.log.Info("chatclient", "chat message delivered", map[string]interface{}{
		"session_id":    sessionId,
		"message_id":    reply.MessageId,
		"response_time": reply.ResponseTime,
		"sources":       len(reply.Sources),
	})
	return &reply, nil
}

// SubmitFeedback records a thumbs-up/down rating against one assistant
// message. The acknowledgement body is not load-bearing, so only the
// status is checked.
func (c *ChatClient) SubmitFeedback(ctx context.Context, messageId, sessionId, feedbackType, feedbackText string) error {
	const op = "submit feedback"

	payload := dto.SubmitFeedbackRequest{
		MessageId:    messageId,
		SessionId:    sessionId,
		FeedbackType: feedbackType,
		FeedbackText: feedbackText,
	}

	if _, err := c.postJSON(ctx, op, constant.FeedbackEndpoint, payload); err != nil {
		return err
	}

	c.log.Info("chatclient", "feedback submitted", map[string]interface{}{
		"session_id":    sessionId,
		"message_id":    messageId,
		"feedback_type": feedbackType,
	})
	return nil
}

// ResolveSourceURL exchanges a cited source for a time-limited download URL.
func (c *ChatClient) ResolveSourceURL(ctx context.Context, sourceId, s3Uri string) (string, error) {
	const op = "resolve source url"

	endpoint := fmt.Sprintf("%s%s/%s?s3Uri=%s",
		c.baseURL, constant.SourcesEndpoint, url.PathEscape(sourceId), url.QueryEscape(s3Uri))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("%s: create request: %w", op, err)
	}

	body, err := c.do(op, req)
	if err != nil {
		return "", err
	}

	var resolved dto.ResolveSourceResponse
	if err := json.Unmarshal(body, &resolved); err != nil {
		return "", fmt.Errorf("%s: unmarshal response: %w", op, err)
	}
	return resolved.PresignedUrl, nil
}

func (c *ChatClient) postJSON(ctx context.Context, op, endpoint string, payload interface{}) ([]byte, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewBuffer(payloadJSON))
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(op, req)
}

func (c *ChatClient) do(op string, req *http.Request) ([]byte, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(op, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		message := constant.GenericServerError
		var envelope dto.ErrorResponse
		if err := json.Unmarshal(body, &envelope); err == nil {
			if m := envelope.DisplayMessage(); m != "" {
				message = m
			}
		}
		c.log.Warn("chatclient", "server rejected request", map[string]interface{}{
			"op":     op,
			"status": res.StatusCode,
			"error":  message,
		})
		return nil, &ServerError{Op: op, StatusCode: res.StatusCode, Message: message}
	}

	return body, nil
}

func (c *ChatClient) classifyTransportError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Op: op}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Op: op}
	}
	return &NetworkError{Op: op, Err: err}
}
