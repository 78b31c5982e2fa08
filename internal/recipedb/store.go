package recipedb

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
)

// Store wraps the Firestore collections holding recipes and their counters.
type Store struct {
	client *firestore.Client
}

func NewStore(client *firestore.Client) *Store {
	return &Store{client: client}
}

func (s *Store) recipes() *firestore.CollectionRef {
	return s.client.Collection(RecipesCollection)
}

func (s *Store) counters() *firestore.CollectionRef {
	return s.client.Collection(CountersCollection)
}

// NewID allocates a document ID for a recipe about to be created, so
// dependent resources such as image objects can be keyed by it before the
// document write.
func (s *Store) NewID() string {
	return s.recipes().NewDoc().ID
}

// CreateRecipe persists a new recipe at the given document ID.
func (s *Store) CreateRecipe(ctx context.Context, id string, recipe Recipe) error {
	if _, err := s.recipes().Doc(id).Create(ctx, recipe); err != nil {
		return fmt.Errorf("recipedb: creating recipe: %w", err)
	}
	return nil
}

// ReplaceRecipe overwrites the whole document at id. It is a full replace,
// not a merge, and does not distinguish a missing document.
func (s *Store) ReplaceRecipe(ctx context.Context, id string, recipe Recipe) error {
	if _, err := s.recipes().Doc(id).Set(ctx, recipe); err != nil {
		return fmt.Errorf("recipedb: replacing recipe %s: %w", id, err)
	}
	return nil
}

// DeleteRecipe removes the document at id. Deleting a missing document
// succeeds silently.
func (s *Store) DeleteRecipe(ctx context.Context, id string) error {
	if _, err := s.recipes().Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("recipedb: deleting recipe %s: %w", id, err)
	}
	return nil
}

// GetRecipe fetches a single recipe by document ID.
func (s *Store) GetRecipe(ctx context.Context, id string) (Recipe, error) {
	snap, err := s.recipes().Doc(id).Get(ctx)
	if err != nil {
		return Recipe{}, fmt.Errorf("recipedb: getting recipe %s: %w", id, err)
	}
	var recipe Recipe
	if err := snap.DataTo(&recipe); err != nil {
		return Recipe{}, fmt.Errorf("recipedb: unmarshalling recipe %s: %w", id, err)
	}
	recipe.ID = snap.Ref.ID
	return recipe, nil
}
