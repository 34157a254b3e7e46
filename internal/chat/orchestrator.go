// ABOUTME: Response orchestration for incoming user messages
// ABOUTME: Determines initial vs follow-up state, invokes a strategy, and persists the exchange

package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/lunara-health/luna-gateway/internal/responder"
	"github.com/lunara-health/luna-gateway/internal/store"
)

// SendRequest contains everything needed to send a message through the chat layer
type SendRequest struct {
	ConversationID string
	OwnerID        string
	Text           string

	// ParentMessageID references the message being replied to. Its presence
	// switches the orchestrator from the initial to the follow-up path.
	ParentMessageID string
}

// SendResult contains the persisted exchange
type SendResult struct {
	UserMessage      *store.Message
	AssistantMessage *store.Message
}

// SendMessage records the user message, generates an assistant reply with
// the selected strategy, and persists both. The user message is saved
// before generation runs, so a generation failure still leaves a record of
// what the user asked.
func (s *Service) SendMessage(ctx context.Context, req *SendRequest) (*SendResult, error) {
	if req.ConversationID == "" {
		return nil, fmt.Errorf("%w: conversation id is required", ErrValidation)
	}
	if req.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", ErrValidation)
	}
	if req.Text == "" {
		return nil, fmt.Errorf("%w: message text is required", ErrValidation)
	}

	if !s.IsOwner(ctx, req.ConversationID, req.OwnerID) {
		return nil, ErrNotFound
	}

	conv, err := s.store.GetConversation(ctx, req.ConversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading conversation: %w", err)
	}

	// Build the generation context before anything is written: the initial
	// path must fail with no message persisted when the snapshot is absent,
	// and the follow-up history must not include the message being sent.
	rc, err := s.buildContext(ctx, conv, req.ParentMessageID)
	if err != nil {
		return nil, err
	}

	userMsg := &store.Message{
		ConversationID: conv.ID,
		Role:           store.RoleUser,
		Content:        req.Text,
	}
	if err := s.store.InsertMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("recording user message: %w", err)
	}

	s.logger.Debug("user message recorded",
		"conversation_id", conv.ID,
		"message_id", userMsg.ID,
		"stage", rc.Stage.String())

	result, err := s.generate(ctx, req.Text, rc)
	if err != nil {
		return nil, err
	}

	assistantMsg := &store.Message{
		ConversationID:  conv.ID,
		Role:            store.RoleAssistant,
		Content:         result.Content,
		ParentMessageID: req.ParentMessageID,
		Metadata:        result.Metadata,
	}
	if err := s.store.InsertMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("recording assistant message: %w", err)
	}

	s.logger.Debug("assistant message recorded",
		"conversation_id", conv.ID,
		"message_id", assistantMsg.ID,
		"response_category", result.Metadata[responder.MetaResponseCategory])

	return &SendResult{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	}, nil
}

// buildContext assembles the strategy input for the conversation's current
// state. Initial messages require the assessment snapshot; follow-ups load
// the full message history plus the cached pattern.
func (s *Service) buildContext(ctx context.Context, conv *store.Conversation, parentMessageID string) (*responder.Context, error) {
	if parentMessageID == "" {
		if conv.Assessment == nil {
			return nil, ErrMissingAssessmentContext
		}
		return &responder.Context{
			Stage:    responder.StageInitial,
			Snapshot: conv.Assessment,
		}, nil
	}

	history, err := s.store.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("loading message history: %w", err)
	}

	return &responder.Context{
		Stage:   responder.StageFollowup,
		Pattern: conv.Pattern,
		History: history,
	}, nil
}

// generate invokes the primary strategy, falling back to the configured
// secondary on failure. Fallback answers are tagged so downstream consumers
// can distinguish degraded responses; without a configured fallback the
// generation error is surfaced as-is.
func (s *Service) generate(ctx context.Context, text string, rc *responder.Context) (*responder.Result, error) {
	result, err := s.primary.Generate(ctx, text, rc)
	if err == nil {
		return result, nil
	}

	if s.fallback == nil {
		return nil, fmt.Errorf("generating response: %w", err)
	}

	s.logger.Warn("primary responder failed, using fallback",
		"error", err,
		"stage", rc.Stage.String())

	result, fbErr := s.fallback.Generate(ctx, text, rc)
	if fbErr != nil {
		return nil, fmt.Errorf("generating response (fallback also failed: %v): %w", fbErr, err)
	}

	if result.Metadata == nil {
		result.Metadata = make(map[string]string)
	}
	result.Metadata[responder.MetaResponseCategory] = responder.CategoryFallback
	return result, nil
}
