package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/andrewgjh/recipes-webapp/internal/recipedb"
)

// DefaultTimeout bounds a single sweep run. Exceeding it aborts the
// remaining scan.
const DefaultTimeout = 5 * time.Minute

// Sweeper reconciles isPublished with publishDate: recipes scheduled in
// the past are flipped to published by a merge write. Counter updates are
// not performed here; they happen through the update events those writes
// emit.
type Sweeper struct {
	store   *firestore.Client
	timeout time.Duration
}

func New(store *firestore.Client) *Sweeper {
	return &Sweeper{
		store:   store,
		timeout: DefaultTimeout,
	}
}

// shouldPublish reports whether an unpublished recipe's publish date has
// passed.
func shouldPublish(recipe recipedb.Recipe, now time.Time) bool {
	return !recipe.PublishDate.After(now)
}

// Run scans all unpublished recipes once and returns how many were
// published. A failed merge write is logged and skipped so one bad
// document cannot stall the whole sweep.
func (s *Sweeper) Run(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := time.Now()
	published := 0
	iter := s.store.Collection(recipedb.RecipesCollection).
		Where("isPublished", "==", false).
		Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return published, fmt.Errorf("sweep: scanning unpublished recipes: %w", err)
		}
		var recipe recipedb.Recipe
		if err := doc.DataTo(&recipe); err != nil {
			slog.WarnContext(ctx, "sweep: skipping malformed recipe", "id", doc.Ref.ID, "error", err)
			continue
		}
		if !shouldPublish(recipe, now) {
			continue
		}
		if _, err := doc.Ref.Set(ctx, map[string]any{"isPublished": true}, firestore.MergeAll); err != nil {
			slog.WarnContext(ctx, "sweep: failed to publish recipe", "id", doc.Ref.ID, "error", err)
			continue
		}
		slog.InfoContext(ctx, "sweep: recipe is now published", "name", recipe.Name)
		published++
	}
	return published, nil
}
