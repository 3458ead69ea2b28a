package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/tome-api/internal/domain"
	"github.com/phrazzld/tome-api/internal/platform/logger"
)

// mutationDecision is the state the gateway lands in for a proposed item
// mutation. Every (user, module, item, change) tuple resolves to exactly
// one of these; UNAUTHORIZED is an explicit state, never a missed branch.
type mutationDecision int

const (
	// decisionUnauthorized: the caller lacks access and the module cannot
	// be forked (or the operation requires existing access). Terminal, no
	// writes.
	decisionUnauthorized mutationDecision = iota

	// decisionDirectEdit: the caller owns the module; mutate in place.
	decisionDirectEdit

	// decisionNoopSkip: a non-owner resubmitted identical content to a
	// forkable module. Nothing is written; no spurious fork is created.
	decisionNoopSkip

	// decisionForkThenEdit: a non-owner changed content on a forkable
	// module. Fork silently, apply the change to the caller's copy.
	decisionForkThenEdit
)

// decideEdit resolves the edit state machine. Only owners mutate shared
// content in place; everyone else either forks, skips, or is rejected.
func decideEdit(level domain.AccessLevel, forkable, contentChanged bool) mutationDecision {
	if level.IsOwner() {
		return decisionDirectEdit
	}
	if !forkable {
		return decisionUnauthorized
	}
	if !contentChanged {
		return decisionNoopSkip
	}
	return decisionForkThenEdit
}

// decideDelete resolves the delete state machine. Deletes have no no-op
// case: a non-owner delete on a forkable module always forks, so shared
// content is never mutated. Unlike edits, a delete requires some existing
// access: with no grant at all the operation is rejected outright.
func decideDelete(level domain.AccessLevel, forkable bool) mutationDecision {
	if level.IsOwner() {
		return decisionDirectEdit
	}
	if level == domain.AccessNone {
		return decisionUnauthorized
	}
	if !forkable {
		return decisionUnauthorized
	}
	return decisionForkThenEdit
}

// UpdateItem implements Service.UpdateItem.
func (s *contentService) UpdateItem(
	ctx context.Context,
	userID, moduleID, itemID uuid.UUID,
	content json.RawMessage,
) (*UpdateItemResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	module, err := s.loadModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	item, err := s.loadItem(ctx, moduleID, itemID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateContent(module.Type, content); err != nil {
		return nil, err
	}

	level, err := s.access.Level(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	if err := ensureNotArchived(module, level); err != nil {
		return nil, err
	}

	decision := decideEdit(level, module.Forkable, !item.ContentEquals(content))

	log.Debug("item edit decision",
		slog.String("module_id", moduleID.String()),
		slog.String("item_id", itemID.String()),
		slog.String("user_id", userID.String()),
		slog.String("access_level", level.String()),
		slog.Int("decision", int(decision)))

	switch decision {
	case decisionUnauthorized:
		return nil, ErrUnauthorized

	case decisionNoopSkip:
		// Identical resubmission (e.g. re-saving an unchanged form):
		// return the current item with no writes at all.
		return &UpdateItemResult{Outcome: OutcomeSkipped, Item: item}, nil

	case decisionDirectEdit:
		if err := item.SetContent(content); err != nil {
			return nil, err
		}
		if err := s.modules.UpdateItem(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to update item: %w", err)
		}
		return &UpdateItemResult{Outcome: OutcomeApplied, Item: item}, nil

	case decisionForkThenEdit:
		forked, forkedItem, err := s.forkAndApplyUpdate(ctx, userID, module, itemID, content)
		if err != nil {
			return nil, err
		}
		log.Info("edit triggered fork",
			slog.String("source_module_id", moduleID.String()),
			slog.String("forked_module_id", forked.Module.ID.String()),
			slog.String("user_id", userID.String()))
		return &UpdateItemResult{
			Outcome:        OutcomeForked,
			Item:           forkedItem,
			ForkedModuleID: forked.Module.ID,
		}, nil

	default:
		return nil, fmt.Errorf("unhandled mutation decision %d", decision)
	}
}

// DeleteItem implements Service.DeleteItem.
func (s *contentService) DeleteItem(
	ctx context.Context,
	userID, moduleID, itemID uuid.UUID,
) (*DeleteItemResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	module, err := s.loadModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadItem(ctx, moduleID, itemID); err != nil {
		return nil, err
	}

	level, err := s.access.Level(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	if err := ensureNotArchived(module, level); err != nil {
		return nil, err
	}

	decision := decideDelete(level, module.Forkable)

	switch decision {
	case decisionUnauthorized:
		return nil, ErrUnauthorized

	case decisionDirectEdit:
		if err := s.modules.DeleteItem(ctx, itemID); err != nil {
			return nil, fmt.Errorf("failed to delete item: %w", err)
		}
		return &DeleteItemResult{Outcome: OutcomeApplied}, nil

	case decisionForkThenEdit:
		forked, err := s.forkAndDeleteItem(ctx, userID, module, itemID)
		if err != nil {
			return nil, err
		}
		log.Info("delete triggered fork",
			slog.String("source_module_id", moduleID.String()),
			slog.String("forked_module_id", forked.Module.ID.String()),
			slog.String("user_id", userID.String()))
		return &DeleteItemResult{
			Outcome:        OutcomeForked,
			ForkedModuleID: forked.Module.ID,
		}, nil

	default:
		return nil, fmt.Errorf("unhandled mutation decision %d", decision)
	}
}
