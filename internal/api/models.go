package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/tome-api/internal/domain"
	"github.com/phrazzld/tome-api/internal/service/content"
)

// RegisterRequest holds the data for user registration requests.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest holds the data for user login requests.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned on successful registration or login.
type AuthResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Token  string    `json:"token"`
}

// CreateModuleRequest holds the data for module creation requests. Items are
// raw payloads validated against the module type by the service.
type CreateModuleRequest struct {
	Title       string            `json:"title"       validate:"required,max=200"`
	Description string            `json:"description" validate:"max=2000"`
	Type        string            `json:"type"        validate:"required"`
	Forkable    bool              `json:"forkable"`
	Items       []json.RawMessage `json:"items"`
}

// UpdateModuleRequest holds the data for module update requests. Nil fields
// are left unchanged; a nil Items slice leaves the item set untouched.
type UpdateModuleRequest struct {
	Title       *string            `json:"title,omitempty"       validate:"omitempty,max=200"`
	Description *string            `json:"description,omitempty" validate:"omitempty,max=2000"`
	Forkable    *bool              `json:"forkable,omitempty"`
	Items       []ItemPatchRequest `json:"items,omitempty"`
}

// ItemPatchRequest is one entry of an incoming item list for module updates.
// ID is omitted for items that do not exist yet.
type ItemPatchRequest struct {
	ID      *uuid.UUID      `json:"id,omitempty"`
	Content json.RawMessage `json:"content" validate:"required"`
}

// AddItemRequest holds the data for appending one item to a module.
type AddItemRequest struct {
	Content json.RawMessage `json:"content" validate:"required"`
}

// UpdateItemRequest holds the data for item edit requests.
type UpdateItemRequest struct {
	Content json.RawMessage `json:"content" validate:"required"`
}

// GenerateItemsRequest holds the source text for AI item generation.
type GenerateItemsRequest struct {
	SourceText string `json:"source_text" validate:"required,max=50000"`
}

// AttemptRequest holds the data for recording a study attempt.
type AttemptRequest struct {
	Correct bool `json:"correct"`
}

// AddToLibraryRequest holds the data for saving a module to the library.
type AddToLibraryRequest struct {
	ModuleID uuid.UUID `json:"module_id" validate:"required"`
}

// ItemResponse is the JSON shape of one study item.
type ItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	ModuleID     uuid.UUID       `json:"module_id"`
	Position     int             `json:"position"`
	Content      json.RawMessage `json:"content"`
	ContentHash  string          `json:"content_hash"`
	SourceItemID *uuid.UUID      `json:"source_item_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ModuleResponse is the JSON shape of a module with its items.
type ModuleResponse struct {
	ID             uuid.UUID      `json:"id"`
	OwnerID        uuid.UUID      `json:"owner_id"`
	CreatorID      uuid.UUID      `json:"creator_id"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Type           string         `json:"type"`
	Forkable       bool           `json:"forkable"`
	Status         string         `json:"status"`
	SourceModuleID *uuid.UUID     `json:"source_module_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	ArchivedAt     *time.Time     `json:"archived_at,omitempty"`
	Items          []ItemResponse `json:"items,omitempty"`
}

// MutationResponse reports what the mutation gateway actually did with an
// item edit or delete. ForkedModuleID is set only when outcome is "forked",
// telling the client its view has moved to a new module.
type MutationResponse struct {
	Outcome        string        `json:"outcome"`
	Item           *ItemResponse `json:"item,omitempty"`
	ForkedModuleID *uuid.UUID    `json:"forked_module_id,omitempty"`
}

// LibraryEntryResponse is the JSON shape of one library entry.
type LibraryEntryResponse struct {
	UserID            uuid.UUID `json:"user_id"`
	ModuleID          uuid.UUID `json:"module_id"`
	Role              string    `json:"role"`
	LastInteractionAt time.Time `json:"last_interaction_at"`
	CreatedAt         time.Time `json:"created_at"`
}

// ProgressResponse is the JSON shape of a progress record.
type ProgressResponse struct {
	ItemID       uuid.UUID `json:"item_id"`
	ContentHash  string    `json:"content_hash"`
	Attempts     int       `json:"attempts"`
	CorrectCount int       `json:"correct_count"`
	LastCorrect  bool      `json:"last_correct"`
	Strength     float64   `json:"strength"`
	NextReviewAt time.Time `json:"next_review_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RepairResponse reports the result of an administrative library repair.
type RepairResponse struct {
	Repaired int64 `json:"repaired"`
}

// toItemResponse converts a domain item to its response shape.
func toItemResponse(item *domain.Item) ItemResponse {
	return ItemResponse{
		ID:           item.ID,
		ModuleID:     item.ModuleID,
		Position:     item.Position,
		Content:      item.Content,
		ContentHash:  item.ContentHash,
		SourceItemID: item.SourceItemID,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

// toModuleResponse converts a module and its items to the response shape.
func toModuleResponse(module *domain.Module, items []*domain.Item) ModuleResponse {
	resp := ModuleResponse{
		ID:             module.ID,
		OwnerID:        module.OwnerID,
		CreatorID:      module.CreatorID,
		Title:          module.Title,
		Description:    module.Description,
		Type:           string(module.Type),
		Forkable:       module.Forkable,
		Status:         string(module.Status),
		SourceModuleID: module.SourceModuleID,
		CreatedAt:      module.CreatedAt,
		UpdatedAt:      module.UpdatedAt,
		ArchivedAt:     module.ArchivedAt,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, toItemResponse(item))
	}
	return resp
}

// toLibraryEntryResponse converts a library entry to its response shape.
func toLibraryEntryResponse(entry *domain.LibraryEntry) LibraryEntryResponse {
	return LibraryEntryResponse{
		UserID:            entry.UserID,
		ModuleID:          entry.ModuleID,
		Role:              string(entry.Role),
		LastInteractionAt: entry.LastInteractionAt,
		CreatedAt:         entry.CreatedAt,
	}
}

// toProgressResponse converts a progress record to its response shape.
func toProgressResponse(record *domain.ProgressRecord) ProgressResponse {
	return ProgressResponse{
		ItemID:       record.ItemID,
		ContentHash:  record.ContentHash,
		Attempts:     record.Attempts,
		CorrectCount: record.CorrectCount,
		LastCorrect:  record.LastCorrect,
		Strength:     record.Strength,
		NextReviewAt: record.NextReviewAt,
		UpdatedAt:    record.UpdatedAt,
	}
}

// toItemPatches converts incoming item patch requests to the service shape.
func toItemPatches(reqs []ItemPatchRequest) []content.ItemPatch {
	if reqs == nil {
		return nil
	}
	patches := make([]content.ItemPatch, 0, len(reqs))
	for _, r := range reqs {
		patch := content.ItemPatch{Content: r.Content}
		if r.ID != nil {
			patch.ID = *r.ID
		}
		patches = append(patches, patch)
	}
	return patches
}
