// ABOUTME: AI response strategy backed by the Gemini API via google.golang.org/genai
// ABOUTME: Builds assessment- or history-grounded prompts and returns generated text

package responder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

const systemPrompt = "You are a supportive menstrual-health assistant. " +
	"Answer questions about the user's cycle assessment in plain, reassuring language. " +
	"You are not a doctor; recommend consulting a clinician for anything concerning."

// AIResponder implements Responder against the Gemini API.
type AIResponder struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewAIResponder creates a Gemini-backed responder.
func NewAIResponder(ctx context.Context, apiKey, model string) (*AIResponder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("AI responder requires an API key")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &AIResponder{
		client: client,
		model:  model,
		logger: slog.Default().With("component", "responder", "model", model),
	}, nil
}

// Generate calls the Gemini API with a prompt assembled from the generation
// context. Failures are wrapped in ErrGeneration so the orchestrator can
// apply its configured fallback.
func (r *AIResponder) Generate(ctx context.Context, text string, rc *Context) (*Result, error) {
	prompt := buildPrompt(text, rc)

	resp, err := r.client.Models.GenerateContent(ctx,
		r.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	content := resp.Text()
	if content == "" {
		return nil, fmt.Errorf("%w: empty response from model", ErrGeneration)
	}

	r.logger.Debug("generated response", "stage", rc.Stage.String(), "chars", len(content))

	return &Result{
		Content: content,
		Metadata: map[string]string{
			MetaModel:            r.model,
			MetaResponseCategory: CategoryAI,
		},
	}, nil
}

// buildPrompt assembles the model input for either generation stage.
func buildPrompt(text string, rc *Context) string {
	var b strings.Builder

	if rc.Stage == StageInitial {
		if rc.Snapshot != nil {
			fmt.Fprintf(&b, "The user just completed a cycle assessment classified as %q.\n", rc.Snapshot.Pattern)
			for k, v := range rc.Snapshot.Attributes {
				fmt.Fprintf(&b, "- %s: %s\n", k, v)
			}
		}
		b.WriteString("\nUser message: ")
		b.WriteString(text)
		return b.String()
	}

	if rc.Pattern != "" {
		fmt.Fprintf(&b, "The user's cycle pattern is %q.\n", rc.Pattern)
	}
	if len(rc.History) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, msg := range rc.History {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
		}
	}
	b.WriteString("\nUser follow-up: ")
	b.WriteString(text)
	return b.String()
}
