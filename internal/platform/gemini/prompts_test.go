package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tome-api/internal/domain"
	"github.com/phrazzld/tome-api/internal/generation"
)

func TestBuildPrompt_AllModuleTypes(t *testing.T) {
	t.Parallel()

	types := []domain.ModuleType{
		domain.ModuleTypeFlashcard,
		domain.ModuleTypeMultipleChoice,
		domain.ModuleTypeGapFill,
		domain.ModuleTypeTrueFalse,
	}

	for _, moduleType := range types {
		moduleType := moduleType
		t.Run(string(moduleType), func(t *testing.T) {
			t.Parallel()
			prompt, err := buildPrompt(moduleType, "The Battle of Hastings was fought in 1066.")
			require.NoError(t, err)
			assert.Contains(t, prompt, `{"items": [`)
			assert.Contains(t, prompt, "The Battle of Hastings was fought in 1066.")
			assert.Contains(t, prompt, payloadSchemas[moduleType])
		})
	}
}

func TestBuildPrompt_UnknownModuleType(t *testing.T) {
	t.Parallel()

	_, err := buildPrompt(domain.ModuleType("ESSAY"), "text")
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}
