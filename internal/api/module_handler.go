package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/tome-api/internal/domain"
	"github.com/phrazzld/tome-api/internal/service/content"
)

// ModuleHandler handles module and item API requests. All mutation outcomes
// flow through the service's gateway, so a handler never needs to know
// whether an edit was applied in place or produced a fork; it only reports
// the outcome.
type ModuleHandler struct {
	service   content.Service
	validator *validator.Validate
}

// NewModuleHandler creates a new ModuleHandler with the given dependencies.
func NewModuleHandler(service content.Service) *ModuleHandler {
	return &ModuleHandler{
		service:   service,
		validator: validator.New(),
	}
}

// Create handles POST /modules.
func (h *ModuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req CreateModuleRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	result, err := h.service.CreateModule(r.Context(), userID, content.ModuleSpec{
		Title:       req.Title,
		Description: req.Description,
		Type:        domain.ModuleType(req.Type),
		Forkable:    req.Forkable,
		Items:       req.Items,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create module")
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, toModuleResponse(result.Module, result.Items))
}

// Get handles GET /modules/{moduleID}.
func (h *ModuleHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, moduleID, ok := requireUserAndPathUUID(w, r, "moduleID")
	if !ok {
		return
	}

	result, err := h.service.GetModule(r.Context(), userID, moduleID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load module")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, toModuleResponse(result.Module, result.Items))
}

// Update handles PUT /modules/{moduleID}.
func (h *ModuleHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, moduleID, ok := requireUserAndPathUUID(w, r, "moduleID")
	if !ok {
		return
	}

	var req UpdateModuleRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	result, err := h.service.UpdateModule(r.Context(), userID, moduleID, content.ModulePatch{
		Title:       req.Title,
		Description: req.Description,
		Forkable:    req.Forkable,
		Items:       toItemPatches(req.Items),
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update module")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, toModuleResponse(result.Module, result.Items))
}

// Archive handles DELETE /modules/{moduleID}. Modules are soft-deleted.
func (h *ModuleHandler) Archive(w http.ResponseWriter, r *http.Request) {
	userID, moduleID, ok := requireUserAndPathUUID(w, r, "moduleID")
	if !ok {
		return
	}

	module, err := h.service.ArchiveModule(r.Context(), userID, moduleID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to archive module")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, toModuleResponse(module, nil))
}

// Fork handles POST /modules/{moduleID}/fork.
func (h *ModuleHandler) Fork(w http.ResponseWriter, r *http.Request) {
	userID, moduleID, ok := requireUserAndPathUUID(w, r, "moduleID")
	if !ok {
		return
	}

	result, err := h.service.ForkModule(r.Context(), userID, moduleID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to fork module")
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, toModuleResponse(result.Module, result.Items))
}

// AddItem handles POST /modules/{moduleID}/items.
func (h *ModuleHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, moduleID, ok := requireUserAndPathUUID(w, r, "moduleID")
	if !ok {
		return
	}

	var req AddItemRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	item, err := h.service.AddItem(r.Context(), userID, moduleID, req.Content)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add item")
		return
	}

	resp := toItemResponse(item)
	RespondWithJSON(w, r, http.StatusCreated, resp)
}

// UpdateItem handles PUT /modules/{moduleID}/items/{itemID}. The response
// always carries the mutation outcome; when the edit forked the module the
// returned item belongs to the caller's new copy.
func (h *ModuleHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, moduleID, ok := requireUserAndPathUUID(w, r, "moduleID")
	if !ok {
		return
	}
	itemID, err := getPathUUID(r, "itemID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req UpdateItemRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	result, err := h.service.UpdateItem(r.Context(), userID, moduleID, itemID, req.Content)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update item")
		return
	}

	resp := MutationResponse{Outcome: string(result.Outcome)}
	if result.Item != nil {
		item := toItemResponse(result.Item)
		resp.Item = &item
	}
	if result.Outcome == content.OutcomeForked {
		forkedID := result.ForkedModuleID
		resp.ForkedModuleID = &forkedID
	}

	status := http.StatusOK
	if result.Outcome == content.OutcomeForked {
		status = http.StatusCreated
	}
	RespondWithJSON(w, r, status, resp)
}

// DeleteItem handles DELETE /modules/{moduleID}/items/{itemID}.
func (h *ModuleHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, moduleID, ok := requireUserAndPathUUID(w, r, "moduleID")
	if !ok {
		return
	}
	itemID, err := getPathUUID(r, "itemID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.service.DeleteItem(r.Context(), userID, moduleID, itemID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete item")
		return
	}

	resp := MutationResponse{Outcome: string(result.Outcome)}
	status := http.StatusOK
	if result.Outcome == content.OutcomeForked {
		forkedID := result.ForkedModuleID
		resp.ForkedModuleID = &forkedID
		status = http.StatusCreated
	}
	RespondWithJSON(w, r, status, resp)
}

// GenerateItems handles POST /modules/{moduleID}/generate.
func (h *ModuleHandler) GenerateItems(w http.ResponseWriter, r *http.Request) {
	userID, moduleID, ok := requireUserAndPathUUID(w, r, "moduleID")
	if !ok {
		return
	}

	var req GenerateItemsRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	items, err := h.service.GenerateItems(r.Context(), userID, moduleID, req.SourceText)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate items")
		return
	}

	resp := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toItemResponse(item))
	}
	RespondWithJSON(w, r, http.StatusCreated, resp)
}

// RecordAttempt handles POST /modules/{moduleID}/items/{itemID}/attempts.
func (h *ModuleHandler) RecordAttempt(w http.ResponseWriter, r *http.Request) {
	userID, moduleID, ok := requireUserAndPathUUID(w, r, "moduleID")
	if !ok {
		return
	}
	itemID, err := getPathUUID(r, "itemID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req AttemptRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	record, err := h.service.RecordAttempt(r.Context(), userID, moduleID, itemID, req.Correct)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record attempt")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, toProgressResponse(record))
}
