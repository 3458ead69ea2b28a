package content

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/tome-api/internal/domain"
	"github.com/phrazzld/tome-api/internal/platform/logger"
)

// GenerateItems implements Service.GenerateItems. Generated payloads are
// appended after the module's existing items; the whole batch is inserted in
// one transaction, so a failed insert leaves no generated items behind.
func (s *contentService) GenerateItems(
	ctx context.Context,
	userID, moduleID uuid.UUID,
	sourceText string,
) ([]*domain.Item, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if s.generator == nil {
		return nil, ErrGenerationDisabled
	}

	module, err := s.loadModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	level, err := s.access.Level(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	if !level.CanEdit() {
		return nil, ErrUnauthorized
	}

	payloads, err := s.generator.GenerateItems(ctx, sourceText, module.Type)
	if err != nil {
		log.Error("item generation failed",
			slog.String("error", err.Error()),
			slog.String("module_id", moduleID.String()))
		return nil, err
	}

	var items []*domain.Item
	err = s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		modules := s.modules.WithTx(tx)

		position, err := modules.NextPosition(ctx, moduleID)
		if err != nil {
			return fmt.Errorf("failed to determine next position: %w", err)
		}

		items = make([]*domain.Item, 0, len(payloads))
		for _, payload := range payloads {
			item, err := domain.NewItem(moduleID, position, payload)
			if err != nil {
				return err
			}
			position++
			items = append(items, item)
		}

		return modules.CreateItems(ctx, items)
	})
	if err != nil {
		return nil, err
	}

	log.Info("items generated",
		slog.String("module_id", moduleID.String()),
		slog.String("user_id", userID.String()),
		slog.Int("count", len(items)))

	return items, nil
}
