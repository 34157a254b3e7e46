// Package config loads and validates the luna-gateway YAML configuration.
//
// Environment variables in ${VAR_NAME} form are expanded before parsing,
// which keeps secrets (JWT signing key, Gemini API key) out of the file
// itself. The responder mode switch ("ai" or "mock") lives here; it is the
// single runtime knob that decides which generation strategy the chat
// orchestrator invokes.
package config
