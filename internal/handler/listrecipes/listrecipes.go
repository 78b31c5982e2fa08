package listrecipes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/andrewgjh/recipes-webapp/internal/auth"
	"github.com/andrewgjh/recipes-webapp/internal/recipedb"
)

func NewHandler(store *recipedb.Store) *Handler {
	return &Handler{
		store: store,
	}
}

type Handler struct {
	store *recipedb.Store
}

type response struct {
	RecipeCount    int64                    `json:"recipeCount"`
	FetchedRecipes []recipedb.RecipePayload `json:"fetchedRecipes"`
}

// ServeHTTP handles GET /recipes. Authentication is optional: public
// callers see published recipes only and the published counter; an
// invalid credential silently narrows to public scope rather than failing.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query, err := parseQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var recipes []recipedb.Recipe
	var count int64
	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		var err error
		recipes, err = h.store.ListRecipes(gctx, query)
		return err
	})
	grp.Go(func() error {
		var err error
		count, err = h.store.RecipeCount(gctx, query.Scope)
		return err
	})
	if err := grp.Wait(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fetched := make([]recipedb.RecipePayload, len(recipes))
	for i, recipe := range recipes {
		fetched[i] = recipe.Payload()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response{
		RecipeCount:    count,
		FetchedRecipes: fetched,
	})
}

// parseQuery maps the request parameters onto a ListQuery. Scope comes
// from the request context, never from the parameters.
func parseQuery(r *http.Request) (recipedb.ListQuery, error) {
	params := r.URL.Query()
	query := recipedb.ListQuery{
		Scope:        auth.ScopeFromContext(r.Context()),
		Category:     recipedb.Category(params.Get("category")),
		OrderByField: params.Get("orderByField"),
		CursorID:     params.Get("cursorId"),
	}

	direction, err := recipedb.ParseDirection(params.Get("orderByDirection"))
	if err != nil {
		return recipedb.ListQuery{}, err
	}
	query.OrderByDirection = direction

	if v := params.Get("perPage"); v != "" {
		perPage, err := strconv.Atoi(v)
		if err != nil || perPage <= 0 {
			return recipedb.ListQuery{}, fmt.Errorf("listrecipes: perPage must be a positive integer, got %q", v)
		}
		query.PerPage = perPage
	}
	if v := params.Get("pageNumber"); v != "" {
		pageNumber, err := strconv.Atoi(v)
		if err != nil || pageNumber <= 0 {
			return recipedb.ListQuery{}, fmt.Errorf("listrecipes: pageNumber must be a positive integer, got %q", v)
		}
		query.PageNumber = pageNumber
	}

	if err := query.Validate(); err != nil {
		return recipedb.ListQuery{}, err
	}
	return query, nil
}
