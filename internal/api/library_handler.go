package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/tome-api/internal/service/content"
)

// LibraryHandler handles library API requests: the user's module index plus
// the administrative repair sweep.
type LibraryHandler struct {
	service   content.Service
	validator *validator.Validate
}

// NewLibraryHandler creates a new LibraryHandler with the given dependencies.
func NewLibraryHandler(service content.Service) *LibraryHandler {
	return &LibraryHandler{
		service:   service,
		validator: validator.New(),
	}
}

// List handles GET /library. Listing lazily backfills entries for owned
// modules that are missing one, so the response is always complete.
func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, "User not authenticated")
		return
	}

	entries, err := h.service.ListLibrary(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list library")
		return
	}

	resp := make([]LibraryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, toLibraryEntryResponse(entry))
	}
	RespondWithJSON(w, r, http.StatusOK, resp)
}

// Add handles POST /library.
func (h *LibraryHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req AddToLibraryRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	entry, err := h.service.AddToLibrary(r.Context(), userID, req.ModuleID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add module to library")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, toLibraryEntryResponse(entry))
}

// Repair handles POST /admin/library/repair: the explicit reconciliation
// sweep over all access grants. Idempotent; a second run repairs nothing.
func (h *LibraryHandler) Repair(w http.ResponseWriter, r *http.Request) {
	if _, ok := getUserIDFromContext(r); !ok {
		RespondWithError(w, r, http.StatusUnauthorized, "User not authenticated")
		return
	}

	repaired, err := h.service.RepairLibraries(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to repair libraries")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, RepairResponse{Repaired: repaired})
}
