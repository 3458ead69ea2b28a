package generation

import (
	"context"
	"encoding/json"

	"github.com/phrazzld/tome-api/internal/domain"
)

// Generator drafts study item payloads from free-form source text. Returned
// payloads conform to the content schema of the requested module type and
// pass domain.ValidateContent; persisting them is the caller's job.
type Generator interface {
	// GenerateItems creates item content payloads of the given module type
	// from the provided source text.
	//
	// Returns ErrEmptySourceText if sourceText is empty, ErrContentBlocked
	// if the model refuses the input, ErrInvalidResponse if the model output
	// cannot be mapped to valid payloads, and ErrTransientFailure for
	// retryable upstream failures.
	GenerateItems(
		ctx context.Context,
		sourceText string,
		moduleType domain.ModuleType,
	) ([]json.RawMessage, error)
}
