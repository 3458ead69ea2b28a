package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Typed content payloads, one per module type. Incoming item content is
// parsed and validated against the module's type before it is hashed or
// stored; raw payloads that do not match the expected shape are rejected
// with ErrInvalidContent.

// FlashcardContent is the payload for FLASHCARD items.
type FlashcardContent struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// MultipleChoiceContent is the payload for MULTIPLE_CHOICE items.
// Answer is the index of the correct option.
type MultipleChoiceContent struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   int      `json:"answer"`
}

// GapFillContent is the payload for GAP_FILL items. Text contains one or
// more gaps marked as {{n}}; Answers holds the fill for each gap in order.
type GapFillContent struct {
	Text    string   `json:"text"`
	Answers []string `json:"answers"`
}

// TrueFalseContent is the payload for TRUE_FALSE items.
type TrueFalseContent struct {
	Statement string `json:"statement"`
	Answer    bool   `json:"answer"`
}

// ValidateContent checks that raw is a well-formed payload for the given
// module type. It is the single validation gate for item content regardless
// of origin: manually entered and AI-generated payloads pass through the
// same checks.
func ValidateContent(moduleType ModuleType, raw json.RawMessage) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: payload is empty", ErrInvalidContent)
	}

	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()

	switch moduleType {
	case ModuleTypeFlashcard:
		var c FlashcardContent
		if err := dec.Decode(&c); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
		if c.Front == "" || c.Back == "" {
			return fmt.Errorf("%w: flashcard front and back are required", ErrInvalidContent)
		}

	case ModuleTypeMultipleChoice:
		var c MultipleChoiceContent
		if err := dec.Decode(&c); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
		if c.Question == "" {
			return fmt.Errorf("%w: question is required", ErrInvalidContent)
		}
		if len(c.Options) < 2 {
			return fmt.Errorf("%w: at least two options are required", ErrInvalidContent)
		}
		if c.Answer < 0 || c.Answer >= len(c.Options) {
			return fmt.Errorf("%w: answer index %d out of range", ErrInvalidContent, c.Answer)
		}

	case ModuleTypeGapFill:
		var c GapFillContent
		if err := dec.Decode(&c); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
		if c.Text == "" {
			return fmt.Errorf("%w: gap-fill text is required", ErrInvalidContent)
		}
		if len(c.Answers) == 0 {
			return fmt.Errorf("%w: at least one answer is required", ErrInvalidContent)
		}
		for i, a := range c.Answers {
			if a == "" {
				return fmt.Errorf("%w: answer %d is empty", ErrInvalidContent, i)
			}
		}

	case ModuleTypeTrueFalse:
		var c TrueFalseContent
		if err := dec.Decode(&c); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
		if c.Statement == "" {
			return fmt.Errorf("%w: statement is required", ErrInvalidContent)
		}

	default:
		return fmt.Errorf("%w: %q", ErrInvalidModuleType, moduleType)
	}

	return nil
}
