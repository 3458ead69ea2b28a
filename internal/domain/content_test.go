package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/tome-api/internal/domain"
)

func TestValidateContent_Flashcard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"valid", `{"front":"What is Go?","back":"A language"}`, false},
		{"missing front", `{"back":"A language"}`, true},
		{"missing back", `{"front":"What is Go?"}`, true},
		{"empty front", `{"front":"","back":"A language"}`, true},
		{"unknown field", `{"front":"a","back":"b","hint":"c"}`, true},
		{"not an object", `"just a string"`, true},
		{"malformed", `{"front":`, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := domain.ValidateContent(domain.ModuleTypeFlashcard, json.RawMessage(tt.payload))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidContent)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateContent_MultipleChoice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"valid", `{"question":"Pick one","options":["a","b","c"],"answer":1}`, false},
		{"answer zero", `{"question":"Pick one","options":["a","b"],"answer":0}`, false},
		{"missing question", `{"options":["a","b"],"answer":0}`, true},
		{"one option", `{"question":"Pick one","options":["a"],"answer":0}`, true},
		{"answer out of range", `{"question":"Pick one","options":["a","b"],"answer":2}`, true},
		{"negative answer", `{"question":"Pick one","options":["a","b"],"answer":-1}`, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := domain.ValidateContent(domain.ModuleTypeMultipleChoice, json.RawMessage(tt.payload))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidContent)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateContent_GapFill(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"valid", `{"text":"Go was released in {{1}}","answers":["2009"]}`, false},
		{"missing text", `{"answers":["2009"]}`, true},
		{"no answers", `{"text":"Go was released in {{1}}","answers":[]}`, true},
		{"empty answer", `{"text":"{{1}} and {{2}}","answers":["a",""]}`, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := domain.ValidateContent(domain.ModuleTypeGapFill, json.RawMessage(tt.payload))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidContent)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateContent_TrueFalse(t *testing.T) {
	t.Parallel()

	assert.NoError(t, domain.ValidateContent(domain.ModuleTypeTrueFalse,
		json.RawMessage(`{"statement":"Go compiles to machine code","answer":true}`)))
	assert.ErrorIs(t, domain.ValidateContent(domain.ModuleTypeTrueFalse,
		json.RawMessage(`{"answer":true}`)), domain.ErrInvalidContent)
}

func TestValidateContent_EmptyPayload(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, domain.ValidateContent(domain.ModuleTypeFlashcard, nil), domain.ErrInvalidContent)
}

func TestValidateContent_UnknownModuleType(t *testing.T) {
	t.Parallel()

	err := domain.ValidateContent(domain.ModuleType("ESSAY"), json.RawMessage(`{}`))
	assert.ErrorIs(t, err, domain.ErrInvalidModuleType)
}
