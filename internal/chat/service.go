// ABOUTME: Chat service managing conversation lifecycle, ownership, and assessment linkage
// ABOUTME: All conversation reads and mutations flow through here after an ownership check

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lunara-health/luna-gateway/internal/assessment"
	"github.com/lunara-health/luna-gateway/internal/preview"
	"github.com/lunara-health/luna-gateway/internal/responder"
	"github.com/lunara-health/luna-gateway/internal/store"
)

var (
	// ErrValidation is returned for missing or empty required input.
	// No persistence is attempted when validation fails.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound covers both "conversation does not exist" and "exists but
	// belongs to someone else". Merging the two prevents existence probing
	// by non-owners; callers must not be able to tell them apart.
	ErrNotFound = errors.New("conversation not found")

	// ErrMissingAssessmentContext signals an initial message on a
	// conversation without an assessment snapshot. This is an integration
	// error (the caller skipped required setup), not a user-facing
	// condition, and nothing is persisted.
	ErrMissingAssessmentContext = errors.New("initial message requires an assessment snapshot")
)

// ConversationStore defines what the service needs from storage
type ConversationStore interface {
	CreateConversation(ctx context.Context, conv *store.Conversation) error
	GetConversation(ctx context.Context, id string) (*store.Conversation, error)
	UpdateAssessmentLink(ctx context.Context, id string, link *store.AssessmentLink) error
	ListConversationsByOwner(ctx context.Context, ownerID string, limit int) ([]*store.Conversation, error)
	InsertMessage(ctx context.Context, msg *store.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]*store.Message, error)
}

// Service is the conversation layer between the routing glue and storage.
// It creates conversations, guards ownership, and orchestrates response
// generation for incoming messages.
type Service struct {
	store    ConversationStore
	lookup   assessment.Lookup
	primary  responder.Responder
	fallback responder.Responder // nil when no fallback is configured
	logger   *slog.Logger
}

// New creates a new chat Service. fallback may be nil; when set, it is
// invoked if the primary strategy fails and the degraded answer is tagged
// in message metadata.
func New(st ConversationStore, lookup assessment.Lookup, primary, fallback responder.Responder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		lookup:   lookup,
		primary:  primary,
		fallback: fallback,
		logger:   logger.With("component", "chat"),
	}
}

// CreateConversation creates a conversation for ownerID, optionally linked
// to an assessment. A failed or empty snapshot lookup does not fail the
// call: assessment linkage is an enhancement, not a precondition for chat.
func (s *Service) CreateConversation(ctx context.Context, ownerID, assessmentID string) (string, error) {
	if ownerID == "" {
		return "", fmt.Errorf("%w: owner id is required", ErrValidation)
	}

	now := time.Now().UTC()
	conv := &store.Conversation{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Preview:   preview.Sentinel,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if assessmentID != "" {
		conv.AssessmentID = assessmentID
		snap, pattern := s.fetchSnapshot(ctx, assessmentID)
		conv.Assessment = snap
		conv.Pattern = pattern
	}

	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return "", fmt.Errorf("creating conversation: %w", err)
	}

	s.logger.Debug("conversation created",
		"conversation_id", conv.ID,
		"owner_id", ownerID,
		"assessment_id", assessmentID,
		"pattern", conv.Pattern)
	return conv.ID, nil
}

// UpdateAssessmentLinks relinks a conversation to an assessment and
// refreshes the denormalized snapshot and pattern. Returns false (not an
// error) when the guard fails or the conversation is missing.
func (s *Service) UpdateAssessmentLinks(ctx context.Context, conversationID, ownerID, assessmentID string) (bool, error) {
	if !s.IsOwner(ctx, conversationID, ownerID) {
		return false, nil
	}

	snap, pattern := s.fetchSnapshot(ctx, assessmentID)
	link := &store.AssessmentLink{
		AssessmentID: assessmentID,
		Snapshot:     snap,
		Pattern:      pattern,
	}

	if err := s.store.UpdateAssessmentLink(ctx, conversationID, link); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("updating assessment links: %w", err)
	}

	s.logger.Debug("assessment links updated",
		"conversation_id", conversationID,
		"assessment_id", assessmentID,
		"pattern", pattern)
	return true, nil
}

// ConversationView is a conversation together with its ordered messages
type ConversationView struct {
	Conversation *store.Conversation
	Messages     []*store.Message
}

// GetConversation returns a conversation and its messages. Nonexistent and
// not-owned conversations yield the same ErrNotFound.
func (s *Service) GetConversation(ctx context.Context, conversationID, ownerID string) (*ConversationView, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading conversation: %w", err)
	}

	if conv.OwnerID != ownerID {
		return nil, ErrNotFound
	}

	messages, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading messages: %w", err)
	}

	return &ConversationView{Conversation: conv, Messages: messages}, nil
}

// ListConversations returns the owner's conversations, most recent activity first.
func (s *Service) ListConversations(ctx context.Context, ownerID string, limit int) ([]*store.Conversation, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", ErrValidation)
	}
	return s.store.ListConversationsByOwner(ctx, ownerID, limit)
}

// IsOwner reports whether ownerID owns the conversation. It returns false
// for both a nonexistent conversation and a different owner so that callers
// cannot distinguish nonexistence from unauthorized access. Storage errors
// also deny (fail closed) and are logged.
func (s *Service) IsOwner(ctx context.Context, conversationID, ownerID string) bool {
	if ownerID == "" {
		return false
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Error("ownership check failed",
				"error", err,
				"conversation_id", conversationID)
		}
		return false
	}

	return conv.OwnerID == ownerID
}

// fetchSnapshot looks up an assessment snapshot, swallowing failures.
// Missing or failed lookups leave snapshot and pattern unset; the failure
// is only reported to the log.
func (s *Service) fetchSnapshot(ctx context.Context, assessmentID string) (*assessment.Snapshot, string) {
	snap, err := s.lookup.FetchSnapshot(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, assessment.ErrNotFound) {
			s.logger.Warn("assessment not found, linking without snapshot",
				"assessment_id", assessmentID)
		} else {
			s.logger.Warn("assessment lookup failed, linking without snapshot",
				"error", err,
				"assessment_id", assessmentID)
		}
		return nil, ""
	}
	return snap, snap.Pattern
}
