// ABOUTME: Response-generation strategy contract shared by the AI and mock backends
// ABOUTME: Defines the generation context (initial vs follow-up) and result shape

package responder

import (
	"context"
	"errors"

	"github.com/lunara-health/luna-gateway/internal/assessment"
	"github.com/lunara-health/luna-gateway/internal/store"
)

// ErrGeneration is returned when a strategy fails to produce a response
var ErrGeneration = errors.New("response generation failed")

// Stage distinguishes the two generation states of a conversation
type Stage int

const (
	// StageInitial is the first exchange: context comes from the
	// conversation's assessment snapshot.
	StageInitial Stage = iota
	// StageFollowup is a reply to a prior message: context comes from the
	// message history plus the cached pattern.
	StageFollowup
)

// String returns the stage name for logging
func (s Stage) String() string {
	if s == StageInitial {
		return "initial"
	}
	return "followup"
}

// Metadata keys attached to generated responses
const (
	MetaModel            = "model"
	MetaResponseCategory = "response_category"
)

// Response category values
const (
	CategoryAI       = "ai"
	CategoryMock     = "mock"
	CategoryFallback = "fallback" // set by the orchestrator on degraded answers
)

// Context carries everything a strategy may use to ground its reply.
// Snapshot is set for StageInitial; History and Pattern for StageFollowup.
type Context struct {
	Stage    Stage
	Snapshot *assessment.Snapshot
	Pattern  string
	History  []*store.Message
}

// Result is the outcome of a generation call
type Result struct {
	Content  string
	Metadata map[string]string
}

// Responder generates an assistant reply to the given user text.
// The orchestrator is agnostic to which concrete strategy runs.
type Responder interface {
	Generate(ctx context.Context, text string, rc *Context) (*Result, error)
}
