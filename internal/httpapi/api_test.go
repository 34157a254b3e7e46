// ABOUTME: Tests for the HTTP API
// ABOUTME: Exercises routing, auth enforcement, and error status mapping end to end

package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunara-health/luna-gateway/internal/assessment"
	"github.com/lunara-health/luna-gateway/internal/auth"
	"github.com/lunara-health/luna-gateway/internal/chat"
	"github.com/lunara-health/luna-gateway/internal/responder"
	"github.com/lunara-health/luna-gateway/internal/store"
)

var testSecret = []byte("test-secret-for-httpapi")

func newTestServer(t *testing.T) (*httptest.Server, *assessment.StaticLookup, *auth.JWTVerifier) {
	tmpDir := t.TempDir()
	st, err := store.NewSQLiteStore(filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	lookup := assessment.NewStaticLookup()
	svc := chat.New(st, lookup, responder.NewMockResponder(), nil, nil)
	verifier := auth.NewJWTVerifier(testSecret)

	srv := httptest.NewServer(NewServer(svc, verifier, nil).Handler())
	t.Cleanup(srv.Close)
	return srv, lookup, verifier
}

func tokenFor(t *testing.T, verifier *auth.JWTVerifier, ownerID string) string {
	token, err := verifier.Generate(ownerID, time.Hour)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, method, url, token, body string) (*http.Response, map[string]any) {
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestAPI_Health(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestAPI_RequiresAuth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/conversations", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_CreateConversation(t *testing.T) {
	srv, lookup, verifier := newTestServer(t)
	token := tokenFor(t, verifier, "user-1")

	lookup.Put(&assessment.Snapshot{ID: "assess-1", Pattern: "regular"})

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/conversations", token,
		`{"assessment_id":"assess-1"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "assess-1", body["assessment_id"])
	assert.Equal(t, "regular", body["pattern"])
	assert.Equal(t, "No messages yet", body["preview"])
}

func TestAPI_CreateConversation_EmptyBody(t *testing.T) {
	srv, _, verifier := newTestServer(t)
	token := tokenFor(t, verifier, "user-1")

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/conversations", token, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["id"])
	assert.Nil(t, body["assessment_id"])
}

func TestAPI_SendAndGetMessages(t *testing.T) {
	srv, lookup, verifier := newTestServer(t)
	token := tokenFor(t, verifier, "user-1")

	lookup.Put(&assessment.Snapshot{ID: "assess-1", Pattern: "regular"})
	_, created := doJSON(t, http.MethodPost, srv.URL+"/api/conversations", token,
		`{"assessment_id":"assess-1"}`)
	convID := created["id"].(string)

	resp, body := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/conversations/%s/messages", srv.URL, convID), token,
		`{"text":"Hi, explain my results"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	userMsg := body["user_message"].(map[string]any)
	assistantMsg := body["assistant_message"].(map[string]any)
	assert.Equal(t, "user", userMsg["role"])
	assert.Equal(t, "assistant", assistantMsg["role"])
	assert.NotEmpty(t, assistantMsg["content"])

	resp, body = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/conversations/%s", srv.URL, convID), token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	messages := body["messages"].([]any)
	require.Len(t, messages, 2)
}

func TestAPI_SendMessage_ValidationError(t *testing.T) {
	srv, lookup, verifier := newTestServer(t)
	token := tokenFor(t, verifier, "user-1")

	lookup.Put(&assessment.Snapshot{ID: "assess-1", Pattern: "regular"})
	_, created := doJSON(t, http.MethodPost, srv.URL+"/api/conversations", token,
		`{"assessment_id":"assess-1"}`)
	convID := created["id"].(string)

	resp, body := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/conversations/%s/messages", srv.URL, convID), token,
		`{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
}

func TestAPI_GetConversation_NotOwned(t *testing.T) {
	srv, _, verifier := newTestServer(t)
	owner := tokenFor(t, verifier, "user-1")
	stranger := tokenFor(t, verifier, "user-2")

	_, created := doJSON(t, http.MethodPost, srv.URL+"/api/conversations", owner, "{}")
	convID := created["id"].(string)

	// A stranger gets the same 404 as for a conversation that never existed
	resp, _ := doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/conversations/%s", srv.URL, convID), stranger, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet,
		srv.URL+"/api/conversations/nonexistent", stranger, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_ListConversations(t *testing.T) {
	srv, _, verifier := newTestServer(t)
	token := tokenFor(t, verifier, "user-1")
	other := tokenFor(t, verifier, "user-2")

	doJSON(t, http.MethodPost, srv.URL+"/api/conversations", token, "{}")
	doJSON(t, http.MethodPost, srv.URL+"/api/conversations", token, "{}")
	doJSON(t, http.MethodPost, srv.URL+"/api/conversations", other, "{}")

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/conversations", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	conversations := body["conversations"].([]any)
	assert.Len(t, conversations, 2)
}

func TestAPI_UpdateAssessment(t *testing.T) {
	srv, lookup, verifier := newTestServer(t)
	token := tokenFor(t, verifier, "user-1")

	_, created := doJSON(t, http.MethodPost, srv.URL+"/api/conversations", token, "{}")
	convID := created["id"].(string)

	lookup.Put(&assessment.Snapshot{ID: "assess-5", Pattern: "irregular"})

	resp, body := doJSON(t, http.MethodPut,
		fmt.Sprintf("%s/api/conversations/%s/assessment", srv.URL, convID), token,
		`{"assessment_id":"assess-5"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "assess-5", body["assessment_id"])
	assert.Equal(t, "irregular", body["pattern"])
}

func TestAPI_UpdateAssessment_MissingConversation(t *testing.T) {
	srv, _, verifier := newTestServer(t)
	token := tokenFor(t, verifier, "user-1")

	resp, _ := doJSON(t, http.MethodPut,
		srv.URL+"/api/conversations/nonexistent/assessment", token,
		`{"assessment_id":"assess-5"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_UpdateAssessment_RequiresAssessmentID(t *testing.T) {
	srv, _, verifier := newTestServer(t)
	token := tokenFor(t, verifier, "user-1")

	_, created := doJSON(t, http.MethodPost, srv.URL+"/api/conversations", token, "{}")
	convID := created["id"].(string)

	resp, _ := doJSON(t, http.MethodPut,
		fmt.Sprintf("%s/api/conversations/%s/assessment", srv.URL, convID), token, "{}")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
