package counters

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"github.com/cenkalti/backoff/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/andrewgjh/recipes-webapp/internal/blob"
	"github.com/andrewgjh/recipes-webapp/internal/recipedb"
)

const maxCounterTries = 5

// counterStore is the subset of the Firestore client used for counter
// updates. *firestore.Client implements it.
type counterStore interface {
	Collection(path string) *firestore.CollectionRef
	RunTransaction(ctx context.Context, f func(context.Context, *firestore.Transaction) error, opts ...firestore.TransactionOption) error
}

// imageDeleter deletes stored recipe images. *blob.IO implements it.
type imageDeleter interface {
	DeleteFile(ctx context.Context, path string) error
}

// Maintainer keeps the recipeCounts documents consistent with recipe
// collection membership. It reacts to create, update and delete events on
// recipe documents; it never recomputes counts from scratch.
type Maintainer struct {
	store counterStore
	blobs imageDeleter
}

func NewMaintainer(store *firestore.Client, blobs *blob.IO) *Maintainer {
	return &Maintainer{
		store: store,
		blobs: blobs,
	}
}

type changeKind int

const (
	changeCreated changeKind = iota
	changeUpdated
	changeDeleted
)

type counterDelta struct {
	doc   string
	delta int64
}

// deltas returns the counter adjustments implied by a recipe change. The
// all counter moves only on create and delete; the published counter moves
// on create/delete of published recipes and on publish transitions.
func deltas(kind changeKind, beforePublished, afterPublished bool) []counterDelta {
	switch kind {
	case changeCreated:
		ds := []counterDelta{{doc: recipedb.CounterAll, delta: 1}}
		if afterPublished {
			ds = append(ds, counterDelta{doc: recipedb.CounterPublished, delta: 1})
		}
		return ds
	case changeDeleted:
		ds := []counterDelta{{doc: recipedb.CounterAll, delta: -1}}
		if beforePublished {
			ds = append(ds, counterDelta{doc: recipedb.CounterPublished, delta: -1})
		}
		return ds
	case changeUpdated:
		switch {
		case !beforePublished && afterPublished:
			return []counterDelta{{doc: recipedb.CounterPublished, delta: 1}}
		case beforePublished && !afterPublished:
			return []counterDelta{{doc: recipedb.CounterPublished, delta: -1}}
		}
	}
	return nil
}

// RecipeCreated increments the all counter, and the published counter if
// the new recipe is already published.
func (m *Maintainer) RecipeCreated(ctx context.Context, recipe recipedb.Recipe) error {
	return m.apply(ctx, deltas(changeCreated, false, recipe.IsPublished))
}

// RecipeUpdated adjusts the published counter when isPublished transitioned.
// The all counter is never touched on update.
func (m *Maintainer) RecipeUpdated(ctx context.Context, before, after recipedb.Recipe) error {
	return m.apply(ctx, deltas(changeUpdated, before.IsPublished, after.IsPublished))
}

// RecipeDeleted decrements the counters and best-effort deletes the
// recipe's image blob. Blob deletion failure is logged, never returned:
// the recipe deletion has already committed and is not rolled back.
func (m *Maintainer) RecipeDeleted(ctx context.Context, recipe recipedb.Recipe) error {
	if err := m.apply(ctx, deltas(changeDeleted, recipe.IsPublished, false)); err != nil {
		return err
	}
	m.deleteImage(ctx, recipe)
	return nil
}

func (m *Maintainer) apply(ctx context.Context, ds []counterDelta) error {
	for _, d := range ds {
		if err := m.applyDelta(ctx, d.doc, d.delta); err != nil {
			return err
		}
	}
	return nil
}

// applyDelta adjusts a single counter document inside a transaction,
// flooring the stored value at zero and lazily creating the document if
// absent. Transient failures are retried with exponential backoff.
func (m *Maintainer) applyDelta(ctx context.Context, name string, delta int64) error {
	ref := m.store.Collection(recipedb.CountersCollection).Doc(name)
	op := func() (struct{}, error) {
		err := m.store.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			var counter recipedb.Counter
			snap, err := tx.Get(ref)
			switch {
			case err == nil:
				if err := snap.DataTo(&counter); err != nil {
					return backoff.Permanent(err)
				}
			case status.Code(err) == codes.NotFound:
				// Lazily initialized below.
			default:
				return err
			}
			counter.Count += delta
			if counter.Count < 0 {
				counter.Count = 0
			}
			return tx.Set(ref, counter)
		})
		return struct{}{}, err
	}
	if _, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxCounterTries),
	); err != nil {
		return fmt.Errorf("counters: updating %s counter: %w", name, err)
	}
	return nil
}

func (m *Maintainer) deleteImage(ctx context.Context, recipe recipedb.Recipe) {
	if recipe.ImageURL == "" {
		return
	}
	path, err := blob.ObjectPath(recipe.ImageURL)
	if err != nil {
		slog.WarnContext(ctx, "counters: could not resolve image path", "recipe", recipe.Name, "error", err)
		return
	}
	slog.InfoContext(ctx, "counters: deleting recipe image", "path", path)
	if err := m.blobs.DeleteFile(ctx, path); err != nil {
		slog.WarnContext(ctx, "counters: failed to delete image", "recipe", recipe.Name, "error", err)
		return
	}
	slog.InfoContext(ctx, "counters: deleted recipe image", "recipe", recipe.Name)
}
