package gemini

import (
	"fmt"

	"github.com/phrazzld/tome-api/internal/domain"
	"github.com/phrazzld/tome-api/internal/generation"
)

// payloadSchemas describes, per module type, the JSON shape of one item
// payload. The descriptions mirror the content schemas enforced by
// domain.ValidateContent; the model's output is still validated against the
// real schema before anything is returned.
var payloadSchemas = map[domain.ModuleType]string{
	domain.ModuleTypeFlashcard: `{"front": "<question or term>", "back": "<answer or definition>"}`,

	domain.ModuleTypeMultipleChoice: `{"question": "<question>", "options": ["<option>", ...], "answer": <zero-based index of the correct option>}`,

	domain.ModuleTypeGapFill: `{"text": "<sentence with each gap written as ___>", "answers": ["<answer for each gap, in order>"]}`,

	domain.ModuleTypeTrueFalse: `{"statement": "<statement>", "answer": <true or false>}`,
}

const promptFormat = `You are an assistant that writes study material.

Read the source text below and produce high-quality study items of a single kind.

Respond with ONLY a JSON object of the form:
{"items": [%s, ...]}

Every element of "items" must match that shape exactly, with no extra keys.
Produce between 3 and 20 items, covering the most important facts in the text.

Source text:
%s`

// buildPrompt renders the generation prompt for the given module type.
func buildPrompt(moduleType domain.ModuleType, sourceText string) (string, error) {
	schema, ok := payloadSchemas[moduleType]
	if !ok {
		return "", fmt.Errorf("%w: no prompt for module type %q",
			generation.ErrInvalidConfig, moduleType)
	}
	return fmt.Sprintf(promptFormat, schema, sourceText), nil
}
