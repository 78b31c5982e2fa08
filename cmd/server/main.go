package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/curioswitch/go-curiostack/server"
	"github.com/curioswitch/go-usegcp/middleware/firebaseauth"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/andrewgjh/recipes-webapp/internal/auth"
	"github.com/andrewgjh/recipes-webapp/internal/blob"
	"github.com/andrewgjh/recipes-webapp/internal/config"
	"github.com/andrewgjh/recipes-webapp/internal/handler/addrecipe"
	"github.com/andrewgjh/recipes-webapp/internal/handler/deleterecipe"
	"github.com/andrewgjh/recipes-webapp/internal/handler/listrecipes"
	"github.com/andrewgjh/recipes-webapp/internal/handler/updaterecipe"
	"github.com/andrewgjh/recipes-webapp/internal/recipedb"
)

//go:embed conf/*.yaml
var confFiles embed.FS

func main() {
	conf, _ := fs.Sub(confFiles, "conf")
	os.Exit(server.Main(&config.Config{}, conf, setupServer))
}

func setupServer(ctx context.Context, conf *config.Config, s *server.Server) error {
	mux := server.Mux(s)

	fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: conf.Google.Project})
	if err != nil {
		return fmt.Errorf("main: create firebase app: %w", err)
	}

	fbAuth, err := fbApp.Auth(ctx)
	if err != nil {
		return fmt.Errorf("main: create firebase auth client: %w", err)
	}

	firestore, err := fbApp.Firestore(ctx)
	if err != nil {
		return fmt.Errorf("main: create firestore client: %w", err)
	}
	defer func() {
		if err := firestore.Close(); err != nil {
			slog.ErrorContext(ctx, "main: close firestore client", "error", err)
		}
	}()

	storage, err := storage.NewGRPCClient(ctx)
	if err != nil {
		return fmt.Errorf("main: create storage client: %w", err)
	}
	defer func() {
		if err := storage.Close(); err != nil {
			slog.ErrorContext(ctx, "main: close storage client", "error", err)
		}
	}()
	publicBucket := conf.Storage.Bucket
	if publicBucket == "" {
		publicBucket = conf.Google.Project + "-public"
	}

	store := recipedb.NewStore(firestore)
	blobs := blob.NewIO(storage, publicBucket)

	// Mutating routes require a verified credential up front; reads resolve
	// their scope lazily and fall back to public on a bad credential.
	fbMW := firebaseauth.NewMiddleware(fbAuth)
	mux.Use(middleware.Maybe(fbMW, func(r *http.Request) bool {
		return r.Method != http.MethodGet
	}))
	mux.Use(auth.Middleware(fbAuth))

	mux.Post("/recipes", addrecipe.NewHandler(store, blobs).ServeHTTP)
	mux.Get("/recipes", listrecipes.NewHandler(store).ServeHTTP)
	mux.Put("/recipes/{id}", updaterecipe.NewHandler(store, blobs).ServeHTTP)
	mux.Delete("/recipes/{id}", deleterecipe.NewHandler(store).ServeHTTP)
	mux.Get("/*", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("No Such page"))
	})

	if err := server.Start(ctx, s); err != nil {
		return fmt.Errorf("main: starting server: %w", err)
	}
	return nil
}
