// Package stubserver is a local stand-in for the deployed chat API. It
// reproduces the wire contract (paths, payload shapes, error envelope,
// conv<N> message ids) with canned answers so the client can be developed
// and demoed without the real backend.
package stubserver

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"ragchat-client/internal/dto"
	"ragchat-client/internal/pkg/logger"
)

type Server struct {
	app      *fiber.App
	validate *validator.Validate
	log      logger.ILogger

	mu sync.Mutex
	// messageSeq counts exchanges per session to assign conv<N> ids, and
	// feedback records what the /feedback endpoint accepted, keyed by
	// sessionId+messageId.
	messageSeq map[string]int
	feedback   map[string]dto.SubmitFeedbackRequest
}

func New(log logger.ILogger) *Server {
	if log == nil {
		log = logger.NopLogger{}
	}

	s := &Server{
		app:        fiber.New(fiber.Config{DisableStartupMessage: true}),
		validate:   validator.New(),
		log:        log,
		messageSeq: make(map[string]int),
		feedback:   make(map[string]dto.SubmitFeedbackRequest),
	}

	s.app.Use(cors.New())
	s.app.Post("/chat", s.handleChat)
	s.app.Post("/feedback", s.handleFeedback)
	s.app.Get("/sources/:sourceId", s.handleResolveSource)

	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) handleChat(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errorEnvelope(ctx, fiber.StatusBadRequest, "invalid request body")
	}
	if err := s.validate.Struct(&req); err != nil {
		return errorEnvelope(ctx, fiber.StatusBadRequest, "Message/Session ID is missing")
	}

	start := time.Now()

	s.mu.Lock()
	s.messageSeq[req.SessionId]++
	messageId := fmt.Sprintf("conv%d", s.messageSeq[req.SessionId])
	s.mu.Unlock()

	answer := cannedAnswer(req.Message, req.SelectedSchool)
	elapsed := float64(time.Since(start).Microseconds()) / 1e6

	s.log.Info("stubserver", "chat handled", map[string]interface{}{
		"session_id": req.SessionId,
		"message_id": messageId,
	})

	return ctx.JSON(dto.SendChatResponse{
		Success:      true,
		Response:     answer,
		SessionId:    req.SessionId,
		MessageId:    messageId,
		QueryType:    "knowledge_base",
		ResponseTime: roundSeconds(elapsed),
		Sources: []*dto.SourceDTO{
			{Id: "src1", Filename: "student-handbook.pdf", S3Uri: "s3://stub-kb/student-handbook.pdf"},
		},
	})
}

func (s *Server) handleFeedback(ctx *fiber.Ctx) error {
	var req dto.SubmitFeedbackRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errorEnvelope(ctx, fiber.StatusBadRequest, "invalid request body")
	}
	if err := s.validate.Struct(&req); err != nil {
		return errorEnvelope(ctx, fiber.StatusBadRequest,
			"Missing required fields: messageId, sessionId, or feedbackType")
	}

	s.mu.Lock()
	known := s.messageSeq[req.SessionId] > 0
	if known {
		s.feedback[req.SessionId+"/"+req.MessageId] = req
	}
	s.mu.Unlock()

	if !known {
		return errorEnvelope(ctx, fiber.StatusNotFound, "conversation not found")
	}

	return ctx.JSON(dto.SubmitFeedbackResponse{
		Success: true,
		Message: "Feedback saved successfully",
	})
}

func (s *Server) handleResolveSource(ctx *fiber.Ctx) error {
	sourceId := ctx.Params("sourceId")
	s3Uri := ctx.Query("s3Uri")
	if s3Uri == "" {
		return errorEnvelope(ctx, fiber.StatusBadRequest, "s3Uri query parameter is required")
	}

	// A real deployment signs the S3 object here; the stub fabricates a
	// link that expires like the real one would.
	expiry := time.Now().Add(time.Hour).Unix()
	return ctx.JSON(dto.ResolveSourceResponse{
		PresignedUrl: fmt.Sprintf("https://stub-kb.local/%s?expires=%d", sourceId, expiry),
	})
}

// FeedbackFor reports what the stub recorded for a message, for tests and
// manual poking.
func (s *Server) FeedbackFor(sessionId, messageId string) (dto.SubmitFeedbackRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.feedback[sessionId+"/"+messageId]
	return req, ok
}

func errorEnvelope(ctx *fiber.Ctx, status int, message string) error {
	return ctx.Status(status).JSON(dto.ErrorResponse{Error: message, Success: false})
}

func cannedAnswer(question, selectedSchool string) string {
	if selectedSchool != "" {
		return fmt.Sprintf("For %s: here is what I found about %q in the knowledge base.", selectedSchool, question)
	}
	return fmt.Sprintf("Here is what I found about %q in the knowledge base.", question)
}

func roundSeconds(v float64) float64 {
	// The backend rounds response times to two decimals.
	return float64(int(v*100+0.5)) / 100
}
