// Package chat provides the conversation and message orchestration core.
//
// # Overview
//
// The chat package sits between the HTTP routing glue and the store,
// providing conversation-level operations: creation (optionally anchored to
// a health assessment), message sending with assistant response generation,
// history reads, and assessment relinking.
//
// # Service
//
// The Service coordinates the core operations:
//
//	svc := chat.New(store, lookup, primary, fallback, logger)
//
// Key operations:
//
//   - CreateConversation(ctx, ownerID, assessmentID): create a thread,
//     capturing an assessment snapshot when one resolves
//   - SendMessage(ctx, req): record a user message, generate and record the
//     assistant reply
//   - GetConversation(ctx, id, ownerID): conversation plus ordered messages
//   - UpdateAssessmentLinks(ctx, id, ownerID, assessmentID): relink and
//     refresh the cached pattern
//
// # Ownership
//
// Every mutating or history-reading operation consults IsOwner first.
// The guard merges "not found" and "wrong owner" into one negative answer
// so non-owners cannot probe for conversation existence.
//
// # Response generation
//
// A user message arrives in one of two states, chosen by the presence of a
// parent message reference:
//
//   - initial: no parent; the strategy is grounded in the conversation's
//     assessment snapshot, which must be present
//   - follow-up: parent present; the strategy is grounded in the full
//     message history plus the cached cycle pattern
//
// The strategy itself (AI or mock) is fixed at construction from
// configuration. When a fallback is configured, primary failures degrade to
// it and the resulting message metadata carries response_category
// "fallback".
//
// # Partial failure
//
// Assessment snapshot lookups are best-effort: a failed lookup during
// creation or relinking is logged and the operation proceeds without the
// snapshot. Everything else propagates.
package chat
