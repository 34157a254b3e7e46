// Package store provides persistence for conversations and messages.
//
// # Overview
//
// The store is the Persistence collaborator of the chat core. It owns two
// record kinds:
//
//   - Conversation: the top-level chat thread, with denormalized summary
//     state (preview, pattern, assessment snapshot, timestamps)
//   - Message: an immutable user or assistant message within a conversation
//
// # Implementations
//
// SQLiteStore is the production implementation (modernc.org/sqlite, WAL
// mode, schema auto-creation). MockStore is an in-memory implementation for
// tests.
//
// # Denormalized state
//
// A conversation's preview and updated_at are derived data with one refresh
// trigger: message insertion. InsertMessage applies the message write and
// the conversation patch in a single transaction, so callers never observe
// a message without its preview update or vice versa.
//
// Message IDs are UUIDv7, assigned by the store, and sort with insertion
// order. Ordering within a conversation is (created_at, id).
package store
