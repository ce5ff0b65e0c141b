package dto

// Wire types for the chat backend. Field names follow the backend's
// camelCase convention except response_time, which the chat endpoint
// returns snake_cased.

type SendChatRequest struct {
	Message        string `json:"message" validate:"required"`
	SessionId      string `json:"sessionId" validate:"required"`
	SelectedSchool string `json:"selectedSchool,omitempty"`
}

type SendChatResponse struct {
	Success      bool         `json:"success"`
	Response     string       `json:"response"`
	SessionId    string       `json:"sessionId"`
	MessageId    string       `json:"messageId"`
	QueryType    string       `json:"queryType,omitempty"`
	ResponseTime float64      `json:"response_time"`
	Sources      []*SourceDTO `json:"sources,omitempty"`
}

type SourceDTO struct {
	Id           string `json:"id"`
	Filename     string `json:"filename"`
	S3Uri        string `json:"s3Uri,omitempty"`
	PresignedUrl string `json:"presignedUrl,omitempty"`
}

type SubmitFeedbackRequest struct {
	MessageId    string `json:"messageId" validate:"required"`
	SessionId    string `json:"sessionId" validate:"required"`
	FeedbackType string `json:"feedbackType" validate:"required,oneof=up down"`
	FeedbackText string `json:"feedbackText"`
}

type SubmitFeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type ResolveSourceResponse struct {
	PresignedUrl string `json:"presignedUrl"`
}

// ErrorResponse is the backend's non-2xx envelope. Older deployments used
// "message" instead of "error"; both are accepted.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Success bool   `json:"success"`
}

// DisplayMessage returns the server-supplied error text, preferring the
// "error" key, or empty when neither key is present.
func (e *ErrorResponse) DisplayMessage() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}
