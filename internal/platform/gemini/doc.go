// Package gemini implements generation.Generator using Google's Gemini API.
// It prompts the model for structured JSON, validates every returned payload
// against the module type's content schema, and retries transient API
// failures with exponential backoff.
package gemini
