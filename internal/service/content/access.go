package content

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/phrazzld/tome-api/internal/domain"
	"github.com/phrazzld/tome-api/internal/store"
)

// AccessController resolves a user's permission level on a module. It is
// the single source of truth for mutation rights: levels come only from
// explicit access grants, never from the module's owner column, because
// forked and shared content can grant editor access without transferring
// ownership. Read-only, no side effects.
type AccessController struct {
	grants store.GrantStore
}

// NewAccessController creates an AccessController over the given grant store.
func NewAccessController(grants store.GrantStore) *AccessController {
	if grants == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("grants cannot be nil")
	}
	return &AccessController{grants: grants}
}

// Level returns the user's access level on the module. Absence of a grant
// resolves to domain.AccessNone, not an error.
func (c *AccessController) Level(ctx context.Context, userID, moduleID uuid.UUID) (domain.AccessLevel, error) {
	level, err := c.grants.GetLevel(ctx, userID, moduleID)
	if err != nil {
		return domain.AccessNone, fmt.Errorf("failed to resolve access level: %w", err)
	}
	return level, nil
}
