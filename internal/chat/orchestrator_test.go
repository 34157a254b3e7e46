// ABOUTME: Tests for message orchestration
// ABOUTME: Verifies initial/follow-up paths, fallback tagging, and failure handling

package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunara-health/luna-gateway/internal/assessment"
	"github.com/lunara-health/luna-gateway/internal/responder"
	"github.com/lunara-health/luna-gateway/internal/store"
)

func TestSendMessage_InitialPath(t *testing.T) {
	svc, _, lookup, primary := newTestService(t)
	ctx := context.Background()

	lookup.Put(&assessment.Snapshot{
		ID:         "assess-1",
		Pattern:    "regular",
		Attributes: map[string]string{"cycle_length": "28"},
	})
	id, err := svc.CreateConversation(ctx, "user-1", "assess-1")
	require.NoError(t, err)

	result, err := svc.SendMessage(ctx, &SendRequest{
		ConversationID: id,
		OwnerID:        "user-1",
		Text:           "Hi, explain my results",
	})
	require.NoError(t, err)

	require.NotNil(t, result.UserMessage)
	assert.Equal(t, store.RoleUser, result.UserMessage.Role)
	assert.Equal(t, "Hi, explain my results", result.UserMessage.Content)

	require.NotNil(t, result.AssistantMessage)
	assert.Equal(t, store.RoleAssistant, result.AssistantMessage.Role)
	assert.Empty(t, result.AssistantMessage.ParentMessageID)

	// The strategy saw the initial stage with the captured snapshot
	require.NotNil(t, primary.lastCtx)
	assert.Equal(t, responder.StageInitial, primary.lastCtx.Stage)
	require.NotNil(t, primary.lastCtx.Snapshot)
	assert.Equal(t, "regular", primary.lastCtx.Snapshot.Pattern)
	assert.Equal(t, "Hi, explain my results", primary.lastText)
}

func TestSendMessage_PreviewReflectsAssistantReply(t *testing.T) {
	svc, testStore, lookup, primary := newTestService(t)
	ctx := context.Background()

	lookup.Put(&assessment.Snapshot{ID: "a-1", Pattern: "regular"})
	id, err := svc.CreateConversation(ctx, "user-1", "a-1")
	require.NoError(t, err)

	primary.content = strings.Repeat("y", 80)
	_, err = svc.SendMessage(ctx, &SendRequest{
		ConversationID: id, OwnerID: "user-1", Text: "Hello",
	})
	require.NoError(t, err)

	conv, err := testStore.GetConversation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("y", 50)+"...", conv.Preview)
}

func TestSendMessage_FollowupPath(t *testing.T) {
	svc, _, lookup, primary := newTestService(t)
	ctx := context.Background()

	lookup.Put(&assessment.Snapshot{ID: "a-1", Pattern: "irregular"})
	id, err := svc.CreateConversation(ctx, "user-1", "a-1")
	require.NoError(t, err)

	first, err := svc.SendMessage(ctx, &SendRequest{
		ConversationID: id, OwnerID: "user-1", Text: "Hi",
	})
	require.NoError(t, err)

	result, err := svc.SendMessage(ctx, &SendRequest{
		ConversationID:  id,
		OwnerID:         "user-1",
		Text:            "What about cramps?",
		ParentMessageID: first.AssistantMessage.ID,
	})
	require.NoError(t, err)

	// Assistant reply points back at the message it answers
	assert.Equal(t, first.AssistantMessage.ID, result.AssistantMessage.ParentMessageID)

	require.NotNil(t, primary.lastCtx)
	assert.Equal(t, responder.StageFollowup, primary.lastCtx.Stage)
	assert.Equal(t, "irregular", primary.lastCtx.Pattern)
	// History covers the first exchange but not the message being sent
	require.Len(t, primary.lastCtx.History, 2)
	assert.Equal(t, "Hi", primary.lastCtx.History[0].Content)
}

func TestSendMessage_InitialWithoutSnapshot(t *testing.T) {
	svc, testStore, _, _ := newTestService(t)
	ctx := context.Background()

	// No assessment anchored; an initial message has nothing to ground on
	id, err := svc.CreateConversation(ctx, "user-1", "")
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, &SendRequest{
		ConversationID: id, OwnerID: "user-1", Text: "Hello",
	})
	assert.ErrorIs(t, err, ErrMissingAssessmentContext)

	// Nothing was persisted
	messages, err := testStore.ListMessages(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestSendMessage_FallbackTagging(t *testing.T) {
	testStore := createTestStore(t)
	lookup := assessment.NewStaticLookup()
	primary := &capturingResponder{err: errors.New("model overloaded")}
	fallback := responder.NewMockResponder()
	svc := New(testStore, lookup, primary, fallback, nil)
	ctx := context.Background()

	lookup.Put(&assessment.Snapshot{ID: "a-1", Pattern: "regular"})
	id, err := svc.CreateConversation(ctx, "user-1", "a-1")
	require.NoError(t, err)

	result, err := svc.SendMessage(ctx, &SendRequest{
		ConversationID: id, OwnerID: "user-1", Text: "Hello",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AssistantMessage.Content)
	assert.Equal(t, responder.CategoryFallback,
		result.AssistantMessage.Metadata[responder.MetaResponseCategory])
}

func TestSendMessage_GenerationFailureWithoutFallback(t *testing.T) {
	svc, testStore, lookup, primary := newTestService(t)
	ctx := context.Background()

	lookup.Put(&assessment.Snapshot{ID: "a-1", Pattern: "regular"})
	id, err := svc.CreateConversation(ctx, "user-1", "a-1")
	require.NoError(t, err)

	primary.err = responder.ErrGeneration
	_, err = svc.SendMessage(ctx, &SendRequest{
		ConversationID: id, OwnerID: "user-1", Text: "Hello",
	})
	assert.ErrorIs(t, err, responder.ErrGeneration)

	// The user message survives the failed generation
	messages, lerr := testStore.ListMessages(ctx, id)
	require.NoError(t, lerr)
	require.Len(t, messages, 1)
	assert.Equal(t, store.RoleUser, messages[0].Role)
}

func TestSendMessage_Validation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  *SendRequest
	}{
		{"missing conversation id", &SendRequest{OwnerID: "user-1", Text: "hi"}},
		{"missing owner id", &SendRequest{ConversationID: "c-1", Text: "hi"}},
		{"missing text", &SendRequest{ConversationID: "c-1", OwnerID: "user-1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SendMessage(ctx, tc.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestSendMessage_WrongOwner(t *testing.T) {
	svc, _, lookup, _ := newTestService(t)
	ctx := context.Background()

	lookup.Put(&assessment.Snapshot{ID: "a-1", Pattern: "regular"})
	id, err := svc.CreateConversation(ctx, "user-1", "a-1")
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, &SendRequest{
		ConversationID: id, OwnerID: "user-2", Text: "Hello",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSendMessage_StorageFailure(t *testing.T) {
	mockStore := store.NewMockStore()
	lookup := assessment.NewStaticLookup()
	primary := &capturingResponder{}
	svc := New(mockStore, lookup, primary, nil, nil)
	ctx := context.Background()

	lookup.Put(&assessment.Snapshot{ID: "a-1", Pattern: "regular"})
	id, err := svc.CreateConversation(ctx, "user-1", "a-1")
	require.NoError(t, err)

	mockStore.FailInsertMessage = errors.New("disk full")
	_, err = svc.SendMessage(ctx, &SendRequest{
		ConversationID: id, OwnerID: "user-1", Text: "Hello",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
