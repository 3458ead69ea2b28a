// Package generation defines the boundary between the application core and
// external AI services that draft study items from source text. The core
// depends only on the Generator interface; concrete LLM clients live under
// internal/platform.
package generation
