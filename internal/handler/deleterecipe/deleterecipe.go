package deleterecipe

import (
	"net/http"

	"github.com/go-chi/chi/v5"

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

// ServeHTTP handles DELETE /recipes/{id}. Counter maintenance and image
// cleanup happen downstream, from the delete event this write emits.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !auth.Require(w, r) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.store.DeleteRecipe(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}
