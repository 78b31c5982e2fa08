package addrecipe

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/andrewgjh/recipes-webapp/internal/auth"
	"github.com/andrewgjh/recipes-webapp/internal/blob"
	"github.com/andrewgjh/recipes-webapp/internal/recipedb"
)

func NewHandler(store *recipedb.Store, blobs *blob.IO) *Handler {
	return &Handler{
		store: store,
		blobs: blobs,
	}
}

type Handler struct {
	store *recipedb.Store
	blobs *blob.IO
}

type response struct {
	ID string `json:"id"`
}

// ServeHTTP handles POST /recipes. Authentication is checked before the
// payload is read; validation failures name every offending field.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !auth.Require(w, r) {
		return
	}

	var payload recipedb.RecipePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Error Adding Recipe: could not parse JSON", http.StatusBadRequest)
		return
	}
	if err := payload.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	recipe := payload.Recipe(time.Now())
	id := h.store.NewID()
	if payload.ImageDataURL != "" {
		url, err := h.blobs.WriteDataURL(ctx, fmt.Sprintf("recipes/%s/main-image", id), payload.ImageDataURL)
		if err != nil {
			http.Error(w, fmt.Sprintf("Error Adding Recipe: %s", err), http.StatusBadRequest)
			return
		}
		recipe.ImageURL = url
	}
	if err := h.store.CreateRecipe(ctx, id, recipe); err != nil {
		http.Error(w, fmt.Sprintf("Error Adding Recipe: %s", err), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(response{ID: id})
}
