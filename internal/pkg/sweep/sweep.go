// Package sweep soft-deletes renders whose retention period has passed.
// Expiry itself is decided by the pure retention functions; this package is
// only the periodic driver around them.
package sweep

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/SvenKoller/RenderKeep/app/models"
	"github.com/SvenKoller/RenderKeep/internal/pkg/retention"
)

const (
	defaultInterval  = 10 * time.Minute
	defaultBatchSize = 100
)

// ObjectDeleter removes stored artifact bytes. May be nil when S3 storage
// is disabled; rows are still soft-deleted.
type ObjectDeleter interface {
	DeleteObject(ctx context.Context, objectKey string) error
}

// Sweeper periodically soft-deletes expired renders and removes their
// stored artifacts.
type Sweeper struct {
	db       *gorm.DB
	store    ObjectDeleter
	interval time.Duration
	batch    int
}

// NewSweeper creates a sweeper over the given DB handle.
func NewSweeper(db *gorm.DB, store ObjectDeleter) *Sweeper {
	return &Sweeper{
		db:       db,
		store:    store,
		interval: defaultInterval,
		batch:    defaultBatchSize,
	}
}

// Start runs the sweep loop until the context is canceled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("Render expiry sweep started (every %v)", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Print("Render expiry sweep stopped")
			return
		case <-ticker.C:
			if n, err := s.SweepOnce(ctx); err != nil {
				log.Printf("Render expiry sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("Render expiry sweep removed %d renders", n)
			}
		}
	}
}

// SweepOnce processes one batch of expired renders and returns how many it
// soft-deleted. Safe to call repeatedly: already-deleted renders are never
// picked up again.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	renders, err := models.ListExpiredRenders(s.db, now, s.batch)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for i := range renders {
		render := &renders[i]
		if !retention.IsExpired(render.ExpiresAt, render.IsDeleted, now) {
			continue
		}
		if err := render.MarkDeleted(s.db); err != nil {
			log.Printf("Failed to soft-delete render %s: %v", render.UUID, err)
			continue
		}
		deleted++
		if s.store != nil && render.ObjectKey != "" {
			if err := s.store.DeleteObject(ctx, render.ObjectKey); err != nil {
				// Row is already marked; the object becomes garbage to
				// collect on a later pass of the storage provider.
				log.Printf("Failed to delete object %s: %v", render.ObjectKey, err)
			}
		}
	}
	return deleted, nil
}
