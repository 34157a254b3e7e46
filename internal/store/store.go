// ABOUTME: Store interface and data types for luna-gateway persistence
// ABOUTME: Defines Conversation, Message structs and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"time"

	"github.com/lunara-health/luna-gateway/internal/assessment"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Role constants for message authorship
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation represents a chat thread owned by a single user, optionally
// anchored to one health assessment.
type Conversation struct {
	ID           string
	OwnerID      string
	AssessmentID string               // empty when no assessment is linked
	Assessment   *assessment.Snapshot // denormalized copy captured at link time, nil when unlinked
	Pattern      string               // cached from Assessment for cheap filtering; never set without AssessmentID
	Preview      string               // derived summary of the most recent message
	CreatedAt    time.Time
	UpdatedAt    time.Time // bumps on every message insert
}

// Message represents a single message within a conversation.
// IDs are assigned by the store (UUIDv7) and sort with insertion order.
type Message struct {
	ID              string
	ConversationID  string
	Role            string // "user" or "assistant"
	Content         string
	ParentMessageID string            // empty on the first exchange of a conversation
	Metadata        map[string]string // responder metadata (model, response_category, ...)
	CreatedAt       time.Time
}

// AssessmentLink is the patch applied when a conversation's assessment
// linkage changes. Snapshot and Pattern may be empty when the assessment
// had no discoverable classification.
type AssessmentLink struct {
	AssessmentID string
	Snapshot     *assessment.Snapshot
	Pattern      string
}

// Store defines the interface for conversation and message persistence
type Store interface {
	// Conversations
	CreateConversation(ctx context.Context, conv *Conversation) error
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	UpdateAssessmentLink(ctx context.Context, id string, link *AssessmentLink) error
	ListConversationsByOwner(ctx context.Context, ownerID string, limit int) ([]*Conversation, error)

	// Messages. InsertMessage assigns the ID if absent and refreshes the
	// conversation's preview and updated_at in the same transaction.
	InsertMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, conversationID string) ([]*Message, error)

	// Close releases any resources held by the store
	Close() error
}
