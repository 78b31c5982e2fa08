package updaterecipe

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

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

// ServeHTTP handles PUT /recipes/{id}: a full document replace with the
// same validation as create. No distinction is made for a missing id; the
// write creates the document in that case.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !auth.Require(w, r) {
		return
	}

	id := chi.URLParam(r, "id")
	var payload recipedb.RecipePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Error Updating Recipe: could not parse JSON", http.StatusBadRequest)
		return
	}
	if err := payload.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	recipe := payload.Recipe(time.Now())
	if payload.ImageDataURL != "" {
		url, err := h.blobs.WriteDataURL(ctx, fmt.Sprintf("recipes/%s/main-image", id), payload.ImageDataURL)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		recipe.ImageURL = url
	}
	if err := h.store.ReplaceRecipe(ctx, id, recipe); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response{ID: id})
}
