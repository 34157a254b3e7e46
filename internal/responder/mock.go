// ABOUTME: Deterministic mock response strategy
// ABOUTME: Used in development, tests, and as the configured fallback for the AI backend

package responder

import (
	"context"
	"fmt"
)

// MockResponder produces deterministic replies without any external calls.
type MockResponder struct{}

// NewMockResponder creates a new MockResponder.
func NewMockResponder() *MockResponder {
	return &MockResponder{}
}

// Generate builds a canned reply from the generation context.
func (m *MockResponder) Generate(ctx context.Context, text string, rc *Context) (*Result, error) {
	var content string

	switch rc.Stage {
	case StageInitial:
		pattern := "unclassified"
		if rc.Snapshot != nil && rc.Snapshot.Pattern != "" {
			pattern = rc.Snapshot.Pattern
		}
		content = fmt.Sprintf(
			"Thanks for completing your assessment. Your cycle pattern is classified as %q. "+
				"Ask me anything about what this means for you.", pattern)
	default:
		content = fmt.Sprintf(
			"You asked: %q. I'm a placeholder assistant, so I can't give a real answer here, "+
				"but your question has been recorded (%d earlier messages in this conversation).",
			text, len(rc.History))
	}

	return &Result{
		Content: content,
		Metadata: map[string]string{
			MetaModel:            "mock",
			MetaResponseCategory: CategoryMock,
		},
	}, nil
}
