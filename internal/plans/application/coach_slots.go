package application

import (
	"context"
	"log/slog"

	coachApp "github.com/felixgeelhaar/studio/internal/coaches/application"
	coachDomain "github.com/felixgeelhaar/studio/internal/coaches/domain"
	sharedApplication "github.com/felixgeelhaar/studio/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
)

// coachSlots persists changes to a coach's client count. Saved coaches drop
// out of the cached availability listings.
type coachSlots struct {
	coaches coachDomain.Repository
	cache   sharedApplication.Cache
	logger  *slog.Logger
}

func (c coachSlots) save(ctx context.Context, coach *coachDomain.Coach) error {
	if err := c.coaches.Save(ctx, coach); err != nil {
		return err
	}
	keys := coachApp.ListingCacheKeys(coach)
	if err := c.cache.Delete(ctx, keys...); err != nil {
		c.logger.WarnContext(ctx, "cache invalidation failed", "keys", keys, "error", err)
	}
	return nil
}

// release frees the slot a plan held with its coach. A coach that no
// longer exists has nothing to free.
func (c coachSlots) release(ctx context.Context, coachID int64) error {
	coach, err := c.coaches.FindByID(ctx, coachID)
	if sharedDomain.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	coach.ReleaseClient()
	return c.save(ctx, coach)
}
