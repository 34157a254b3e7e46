// ABOUTME: JSON HTTP API for conversations and messages
// ABOUTME: Thin routing glue over the chat service; auth middleware supplies identity

package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lunara-health/luna-gateway/internal/auth"
	"github.com/lunara-health/luna-gateway/internal/chat"
	"github.com/lunara-health/luna-gateway/internal/store"
)

const defaultListLimit = 50

// Server exposes the chat service over HTTP
type Server struct {
	svc      *chat.Service
	verifier auth.TokenVerifier
	logger   *slog.Logger
}

// NewServer creates an HTTP API server around the chat service
func NewServer(svc *chat.Service, verifier auth.TokenVerifier, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		svc:      svc,
		verifier: verifier,
		logger:   logger.With("component", "httpapi"),
	}
}

// Handler returns the routed handler with authentication applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/conversations", s.handleCreateConversation)
	mux.HandleFunc("GET /api/conversations", s.handleListConversations)
	mux.HandleFunc("GET /api/conversations/{id}", s.handleGetConversation)
	mux.HandleFunc("POST /api/conversations/{id}/messages", s.handleSendMessage)
	mux.HandleFunc("PUT /api/conversations/{id}/assessment", s.handleUpdateAssessment)

	authed := auth.HTTPAuthMiddleware(s.verifier)(mux)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", s.handleHealth)
	root.Handle("/api/", authed)
	return root
}

type conversationResponse struct {
	ID           string    `json:"id"`
	AssessmentID string    `json:"assessment_id,omitempty"`
	Pattern      string    `json:"pattern,omitempty"`
	Preview      string    `json:"preview"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type messageResponse struct {
	ID              string            `json:"id"`
	Role            string            `json:"role"`
	Content         string            `json:"content"`
	ParentMessageID string            `json:"parent_message_id,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

func toConversationResponse(conv *store.Conversation) *conversationResponse {
	return &conversationResponse{
		ID:           conv.ID,
		AssessmentID: conv.AssessmentID,
		Pattern:      conv.Pattern,
		Preview:      conv.Preview,
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	}
}

func toMessageResponse(msg *store.Message) *messageResponse {
	return &messageResponse{
		ID:              msg.ID,
		Role:            msg.Role,
		Content:         msg.Content,
		ParentMessageID: msg.ParentMessageID,
		Metadata:        msg.Metadata,
		CreatedAt:       msg.CreatedAt,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())

	// The body is optional: a bare POST creates an unanchored conversation
	var req struct {
		AssessmentID string `json:"assessment_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	convID, err := s.svc.CreateConversation(r.Context(), id.OwnerID, req.AssessmentID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	view, err := s.svc.GetConversation(r.Context(), convID, id.OwnerID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toConversationResponse(view.Conversation))
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())

	conversations, err := s.svc.ListConversations(r.Context(), id.OwnerID, defaultListLimit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	out := make([]*conversationResponse, 0, len(conversations))
	for _, conv := range conversations {
		out = append(out, toConversationResponse(conv))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"conversations": out})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	convID := r.PathValue("id")

	view, err := s.svc.GetConversation(r.Context(), convID, id.OwnerID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	messages := make([]*messageResponse, 0, len(view.Messages))
	for _, msg := range view.Messages {
		messages = append(messages, toMessageResponse(msg))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"conversation": toConversationResponse(view.Conversation),
		"messages":     messages,
	})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	convID := r.PathValue("id")

	var req struct {
		Text            string `json:"text"`
		ParentMessageID string `json:"parent_message_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.svc.SendMessage(r.Context(), &chat.SendRequest{
		ConversationID:  convID,
		OwnerID:         id.OwnerID,
		Text:            req.Text,
		ParentMessageID: req.ParentMessageID,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"user_message":      toMessageResponse(result.UserMessage),
		"assistant_message": toMessageResponse(result.AssistantMessage),
	})
}

func (s *Server) handleUpdateAssessment(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	convID := r.PathValue("id")

	var req struct {
		AssessmentID string `json:"assessment_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AssessmentID == "" {
		s.writeError(w, http.StatusBadRequest, "assessment_id is required")
		return
	}

	ok, err := s.svc.UpdateAssessmentLinks(r.Context(), convID, id.OwnerID, req.AssessmentID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if !ok {
		s.writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	view, err := s.svc.GetConversation(r.Context(), convID, id.OwnerID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toConversationResponse(view.Conversation))
}

// writeServiceError maps chat service errors onto HTTP statuses
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "conversation not found")
	default:
		s.logger.Error("request failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
