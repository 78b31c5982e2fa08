package recipedb

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/andrewgjh/recipes-webapp/internal/auth"
)

// ParseDirection maps the wire sort direction to a Firestore direction.
// An empty direction defaults to ascending.
func ParseDirection(s string) (firestore.Direction, error) {
	switch s {
	case "", "asc":
		return firestore.Asc, nil
	case "desc":
		return firestore.Desc, nil
	}
	return 0, fmt.Errorf("recipedb: unknown sort direction %q", s)
}

// ListQuery describes a filtered, sorted, bounded query over the recipes
// collection. Pagination is either offset-based (PageNumber) or
// cursor-based (CursorID), never both.
type ListQuery struct {
	// Scope is the caller's visibility. Public scope always adds an
	// implicit isPublished filter, and selects which counter backs the
	// total count.
	Scope auth.Scope

	// Category filters to an exact category when set.
	Category Category

	// OrderByField sorts results by the named field when set. The document
	// ID is always appended as a tie-break key, so that cursor pagination
	// stays deterministic when the sort field has duplicate values.
	OrderByField     string
	OrderByDirection firestore.Direction

	// PerPage bounds the page size. Zero means unbounded.
	PerPage int

	// PageNumber selects a 1-based page in offset mode. It only takes
	// effect together with PerPage.
	PageNumber int

	// CursorID is the ID of the last document of the previously fetched
	// page; the next page starts strictly after it in the sort order.
	CursorID string
}

var (
	errNegativePerPage    = errors.New("recipedb: perPage must be positive")
	errNegativePageNumber = errors.New("recipedb: pageNumber must be positive")
	errCursorAndPage      = errors.New("recipedb: cursorId and pageNumber are mutually exclusive")
)

// Validate rejects malformed pagination parameters.
func (q ListQuery) Validate() error {
	if q.PerPage < 0 {
		return errNegativePerPage
	}
	if q.PageNumber < 0 {
		return errNegativePageNumber
	}
	if q.CursorID != "" && q.PageNumber > 0 {
		return errCursorAndPage
	}
	return nil
}

// Offset is the number of documents skipped in offset mode.
func (q ListQuery) Offset() int {
	if q.PageNumber <= 1 || q.PerPage <= 0 {
		return 0
	}
	return (q.PageNumber - 1) * q.PerPage
}

func (q ListQuery) applyOrder(fq firestore.Query) firestore.Query {
	if q.OrderByField != "" {
		return fq.OrderBy(q.OrderByField, q.OrderByDirection).
			OrderBy(firestore.DocumentID, q.OrderByDirection)
	}
	if q.CursorID != "" {
		// Snapshot cursors require an explicit ordering.
		return fq.OrderBy(firestore.DocumentID, firestore.Asc)
	}
	return fq
}

// buildQuery chains the query's filters, ordering, offset and limit onto
// fq. Cursor resolution needs a document read and happens in ListRecipes.
func buildQuery(fq firestore.Query, q ListQuery) firestore.Query {
	if !q.Scope.Authenticated {
		fq = fq.Where("isPublished", "==", true)
	}
	if q.Category != "" {
		fq = fq.Where("category", "==", string(q.Category))
	}
	fq = q.applyOrder(fq)
	if offset := q.Offset(); offset > 0 {
		fq = fq.Offset(offset)
	}
	if q.PerPage > 0 {
		fq = fq.Limit(q.PerPage)
	}
	return fq
}

// ListRecipes executes the query and returns the matching page of recipes.
func (s *Store) ListRecipes(ctx context.Context, q ListQuery) ([]Recipe, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	fq := buildQuery(s.recipes().Query, q)
	if q.CursorID != "" {
		snap, err := s.recipes().Doc(q.CursorID).Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("recipedb: resolving cursor %s: %w", q.CursorID, err)
		}
		fq = fq.StartAfter(snap)
	}

	docs, err := fq.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("recipedb: getting recipes: %w", err)
	}
	recipes := make([]Recipe, len(docs))
	for i, doc := range docs {
		if err := doc.DataTo(&recipes[i]); err != nil {
			return nil, fmt.Errorf("recipedb: unmarshalling recipe %s: %w", doc.Ref.ID, err)
		}
		recipes[i].ID = doc.Ref.ID
	}
	return recipes, nil
}

// RecipeCount reads the denormalized counter applicable to the scope:
// recipeCounts/all for authenticated callers, recipeCounts/published
// otherwise. A missing counter document counts as zero.
func (s *Store) RecipeCount(ctx context.Context, scope auth.Scope) (int64, error) {
	name := CounterPublished
	if scope.Authenticated {
		name = CounterAll
	}
	snap, err := s.counters().Doc(name).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 0, nil
		}
		return 0, fmt.Errorf("recipedb: getting %s counter: %w", name, err)
	}
	var counter Counter
	if err := snap.DataTo(&counter); err != nil {
		return 0, fmt.Errorf("recipedb: unmarshalling %s counter: %w", name, err)
	}
	return counter.Count, nil
}
