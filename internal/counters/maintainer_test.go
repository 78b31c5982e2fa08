package counters

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewgjh/recipes-webapp/internal/recipedb"
)

func TestDeltas(t *testing.T) {
	tests := []struct {
		name            string
		kind            changeKind
		beforePublished bool
		afterPublished  bool
		want            map[string]int64
	}{
		{
			name:           "create unpublished",
			kind:           changeCreated,
			afterPublished: false,
			want:           map[string]int64{recipedb.CounterAll: 1},
		},
		{
			name:           "create published",
			kind:           changeCreated,
			afterPublished: true,
			want:           map[string]int64{recipedb.CounterAll: 1, recipedb.CounterPublished: 1},
		},
		{
			name:            "delete unpublished",
			kind:            changeDeleted,
			beforePublished: false,
			want:            map[string]int64{recipedb.CounterAll: -1},
		},
		{
			name:            "delete published",
			kind:            changeDeleted,
			beforePublished: true,
			want:            map[string]int64{recipedb.CounterAll: -1, recipedb.CounterPublished: -1},
		},
		{
			name:            "update publish transition",
			kind:            changeUpdated,
			beforePublished: false,
			afterPublished:  true,
			want:            map[string]int64{recipedb.CounterPublished: 1},
		},
		{
			name:            "update unpublish transition",
			kind:            changeUpdated,
			beforePublished: true,
			afterPublished:  false,
			want:            map[string]int64{recipedb.CounterPublished: -1},
		},
		{
			name:            "update without transition",
			kind:            changeUpdated,
			beforePublished: true,
			afterPublished:  true,
			want:            map[string]int64{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := map[string]int64{}
			for _, d := range deltas(tc.kind, tc.beforePublished, tc.afterPublished) {
				got[d.doc] += d.delta
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

// applyAll plays event deltas against in-memory counters with the same
// floor-at-zero rule the transaction applies.
func applyAll(counts map[string]int64, ds []counterDelta) {
	for _, d := range ds {
		next := counts[d.doc] + d.delta
		if next < 0 {
			next = 0
		}
		counts[d.doc] = next
	}
}

func TestDeltaSequences(t *testing.T) {
	t.Run("n creates and m deletes leave all at n minus m", func(t *testing.T) {
		counts := map[string]int64{}
		for range 5 {
			applyAll(counts, deltas(changeCreated, false, true))
		}
		for range 2 {
			applyAll(counts, deltas(changeDeleted, true, false))
		}
		assert.Equal(t, int64(3), counts[recipedb.CounterAll])
		assert.Equal(t, int64(3), counts[recipedb.CounterPublished])
	})

	t.Run("deletes beyond zero clamp at zero", func(t *testing.T) {
		counts := map[string]int64{}
		for range 3 {
			applyAll(counts, deltas(changeDeleted, true, false))
		}
		assert.Equal(t, int64(0), counts[recipedb.CounterAll])
		assert.Equal(t, int64(0), counts[recipedb.CounterPublished])
	})

	t.Run("sweep publish moves published by exactly one", func(t *testing.T) {
		counts := map[string]int64{}
		applyAll(counts, deltas(changeCreated, false, false))
		assert.Equal(t, int64(0), counts[recipedb.CounterPublished])

		applyAll(counts, deltas(changeUpdated, false, true))
		assert.Equal(t, int64(1), counts[recipedb.CounterPublished])
		assert.Equal(t, int64(1), counts[recipedb.CounterAll], "all is never touched on update")
	})
}

// fakeStore commits every counter transaction without touching Firestore.
type fakeStore struct {
	txs int
}

func (s *fakeStore) Collection(string) *firestore.CollectionRef { return nil }

func (s *fakeStore) RunTransaction(context.Context, func(context.Context, *firestore.Transaction) error, ...firestore.TransactionOption) error {
	s.txs++
	return nil
}

type fakeDeleter struct {
	paths []string
	err   error
}

func (d *fakeDeleter) DeleteFile(_ context.Context, path string) error {
	d.paths = append(d.paths, path)
	return d.err
}

func TestRecipeDeletedImageCleanup(t *testing.T) {
	ctx := context.Background()

	t.Run("failed blob deletion does not fail the event", func(t *testing.T) {
		store := &fakeStore{}
		blobs := &fakeDeleter{err: errors.New("object not found")}
		m := &Maintainer{store: store, blobs: blobs}

		recipe := recipedb.Recipe{
			Name:        "carrot soup",
			IsPublished: true,
			ImageURL:    "https://storage.googleapis.com/bucket/recipes/abc123/main-image.jpeg",
		}
		require.NoError(t, m.RecipeDeleted(ctx, recipe))
		assert.Equal(t, []string{"recipes/abc123/main-image.jpeg"}, blobs.paths)
		assert.Equal(t, 2, store.txs, "both counters still decremented")
	})

	t.Run("unresolvable image URL skips deletion", func(t *testing.T) {
		store := &fakeStore{}
		blobs := &fakeDeleter{}
		m := &Maintainer{store: store, blobs: blobs}

		recipe := recipedb.Recipe{
			Name:        "carrot soup",
			IsPublished: false,
			ImageURL:    "https://example.com/elsewhere.png",
		}
		require.NoError(t, m.RecipeDeleted(ctx, recipe))
		assert.Empty(t, blobs.paths)
		assert.Equal(t, 1, store.txs)
	})

	t.Run("no image means no deletion attempt", func(t *testing.T) {
		blobs := &fakeDeleter{}
		m := &Maintainer{store: &fakeStore{}, blobs: blobs}

		require.NoError(t, m.RecipeDeleted(ctx, recipedb.Recipe{Name: "carrot soup"}))
		assert.Empty(t, blobs.paths)
	})
}
