// Package responder implements the response-generation strategies for the
// assistant chat.
//
// Two strategies share one contract (Responder): AIResponder calls the
// Gemini API; MockResponder produces deterministic canned replies. The
// orchestrator selects one per call from configuration and may fall back
// from AI to mock when configured, tagging degraded answers in metadata.
//
// Generation context comes in two shapes: the assessment snapshot for the
// first exchange of a conversation, or the message history plus the cached
// cycle pattern for follow-ups.
package responder
