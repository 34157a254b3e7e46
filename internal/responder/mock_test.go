// ABOUTME: Tests for the deterministic mock responder
// ABOUTME: Verifies stage-specific content and metadata tagging

package responder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunara-health/luna-gateway/internal/assessment"
	"github.com/lunara-health/luna-gateway/internal/store"
)

func TestMockResponder_Initial(t *testing.T) {
	m := NewMockResponder()

	result, err := m.Generate(context.Background(), "Explain my results", &Context{
		Stage:    StageInitial,
		Snapshot: &assessment.Snapshot{ID: "a-1", Pattern: "regular"},
	})
	require.NoError(t, err)
	assert.Contains(t, result.Content, `"regular"`)
	assert.Equal(t, CategoryMock, result.Metadata[MetaResponseCategory])
	assert.Equal(t, "mock", result.Metadata[MetaModel])
}

func TestMockResponder_Followup(t *testing.T) {
	m := NewMockResponder()

	result, err := m.Generate(context.Background(), "What about cramps?", &Context{
		Stage:   StageFollowup,
		Pattern: "regular",
		History: []*store.Message{
			{Role: store.RoleUser, Content: "Hi"},
			{Role: store.RoleAssistant, Content: "Hello"},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, result.Content, "What about cramps?")
	assert.Contains(t, result.Content, "2 earlier messages")
}

func TestMockResponder_Deterministic(t *testing.T) {
	m := NewMockResponder()
	rc := &Context{Stage: StageInitial, Snapshot: &assessment.Snapshot{Pattern: "irregular"}}

	first, err := m.Generate(context.Background(), "hi", rc)
	require.NoError(t, err)
	second, err := m.Generate(context.Background(), "hi", rc)
	require.NoError(t, err)
	assert.Equal(t, first.Content, second.Content)
}

func TestBuildPrompt_InitialIncludesAttributes(t *testing.T) {
	prompt := buildPrompt("Explain", &Context{
		Stage: StageInitial,
		Snapshot: &assessment.Snapshot{
			Pattern:    "regular",
			Attributes: map[string]string{"cycle_length": "28"},
		},
	})
	assert.Contains(t, prompt, `"regular"`)
	assert.Contains(t, prompt, "cycle_length: 28")
	assert.Contains(t, prompt, "User message: Explain")
}

func TestBuildPrompt_FollowupIncludesHistory(t *testing.T) {
	prompt := buildPrompt("And cramps?", &Context{
		Stage:   StageFollowup,
		Pattern: "irregular",
		History: []*store.Message{
			{Role: store.RoleUser, Content: "Hi"},
			{Role: store.RoleAssistant, Content: "Hello there"},
		},
	})
	assert.Contains(t, prompt, `"irregular"`)
	assert.Contains(t, prompt, "user: Hi")
	assert.Contains(t, prompt, "assistant: Hello there")
	assert.Contains(t, prompt, "User follow-up: And cramps?")
}
