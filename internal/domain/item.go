package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/tome-api/internal/domain/contenthash"
)

// Item-specific validation errors
var (
	ErrItemIDEmpty       = errors.New("item ID cannot be empty")
	ErrItemModuleIDEmpty = errors.New("item module ID cannot be empty")
	ErrItemContentEmpty  = errors.New("item content cannot be empty")
	ErrItemBadPosition   = errors.New("item position must be greater than or equal to 0")
	ErrItemHashMismatch  = errors.New("item content hash does not match content")
)

// Item is a single study unit inside a module, ordered by Position (unique
// within the module). ContentHash always equals the fingerprint of Content;
// it is recomputed on every write and never accepted from callers.
//
// SourceItemID links the item to the item it was copied from during a fork.
// Like Module.SourceModuleID it is set once at creation and never mutated.
type Item struct {
	ID           uuid.UUID       `json:"id"`
	ModuleID     uuid.UUID       `json:"module_id"`
	Position     int             `json:"position"`
	Content      json.RawMessage `json:"content"`
	ContentHash  string          `json:"content_hash"`
	SourceItemID *uuid.UUID      `json:"source_item_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewItem creates a new Item for the given module at the given position,
// stamping the content fingerprint. Returns an error if the content cannot
// be hashed or validation fails.
func NewItem(moduleID uuid.UUID, position int, content json.RawMessage) (*Item, error) {
	hash, err := contenthash.Hash(content)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	item := &Item{
		ID:          uuid.New(),
		ModuleID:    moduleID,
		Position:    position,
		Content:     content,
		ContentHash: hash,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// NewForkedItem creates the copy-side Item of a fork. Content and hash are
// carried over verbatim from the source, so at creation time the copy's hash
// is identical to the source's by construction.
func NewForkedItem(moduleID uuid.UUID, source *Item) (*Item, error) {
	now := time.Now().UTC()
	item := &Item{
		ID:           uuid.New(),
		ModuleID:     moduleID,
		Position:     source.Position,
		Content:      append(json.RawMessage(nil), source.Content...),
		ContentHash:  source.ContentHash,
		SourceItemID: &source.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// Validate checks if the Item has valid data, including that the stored
// hash matches the content. Returns an error if any field fails validation.
func (i *Item) Validate() error {
	if i.ID == uuid.Nil {
		return ErrItemIDEmpty
	}

	if i.ModuleID == uuid.Nil {
		return ErrItemModuleIDEmpty
	}

	if i.Position < 0 {
		return ErrItemBadPosition
	}

	if len(i.Content) == 0 {
		return ErrItemContentEmpty
	}

	hash, err := contenthash.Hash(i.Content)
	if err != nil {
		return err
	}
	if hash != i.ContentHash {
		return ErrItemHashMismatch
	}

	return nil
}

// SetContent replaces the item's content, recomputing the fingerprint and
// updating the timestamp. Returns an error if the new content is invalid.
func (i *Item) SetContent(content json.RawMessage) error {
	hash, err := contenthash.Hash(content)
	if err != nil {
		return err
	}

	i.Content = content
	i.ContentHash = hash
	i.UpdatedAt = time.Now().UTC()
	return nil
}

// ContentEquals reports whether the given payload is structurally identical
// to the item's current content, ignoring key order and whitespace.
func (i *Item) ContentEquals(content json.RawMessage) bool {
	hash, err := contenthash.Hash(content)
	if err != nil {
		// Unhashable content can never equal stored content.
		return false
	}
	return hash == i.ContentHash
}
