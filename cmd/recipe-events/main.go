package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/googleapis/google-cloudevents-go/cloud/firestoredata"
	"google.golang.org/protobuf/proto"

	"github.com/andrewgjh/recipes-webapp/internal/blob"
	"github.com/andrewgjh/recipes-webapp/internal/counters"
	"github.com/andrewgjh/recipes-webapp/internal/recipedb"
	"github.com/andrewgjh/recipes-webapp/internal/sweep"
)

var (
	maintainer *counters.Maintainer
	sweeper    *sweep.Sweeper
	initErr    error
	once       sync.Once
)

func init() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// Entry point names as configured on the deployed functions.
	functions.CloudEvent("OnRecipeCreated", onRecipeCreated)
	functions.CloudEvent("OnRecipeUpdated", onRecipeUpdated)
	functions.CloudEvent("OnRecipeDeleted", onRecipeDeleted)
	functions.HTTP("DailyPublishSweep", dailyPublishSweep)
}

// main is required by the Go Functions Framework.
func main() {}

func setup(ctx context.Context) error {
	once.Do(func() {
		projectID := os.Getenv("PROJECT_ID")
		if projectID == "" {
			initErr = fmt.Errorf("PROJECT_ID environment variable must be set")
			return
		}
		bucket := os.Getenv("IMAGES_BUCKET")
		if bucket == "" {
			bucket = projectID + "-public"
		}

		store, err := firestore.NewClient(ctx, projectID)
		if err != nil {
			initErr = fmt.Errorf("failed to create firestore client: %w", err)
			return
		}
		storageClient, err := storage.NewClient(ctx)
		if err != nil {
			initErr = fmt.Errorf("failed to create storage client: %w", err)
			return
		}
		maintainer = counters.NewMaintainer(store, blob.NewIO(storageClient, bucket))
		sweeper = sweep.New(store)
	})
	return initErr
}

func eventData(e cloudevents.Event) (*firestoredata.DocumentEventData, error) {
	var data firestoredata.DocumentEventData
	if err := proto.Unmarshal(e.Data(), &data); err != nil {
		return nil, fmt.Errorf("decoding firestore event payload: %w", err)
	}
	return &data, nil
}

// Counter maintenance is a side effect of an already-committed document
// write: failures are logged, never returned, so the event is not retried
// into double counting and the triggering write is never failed.
func onRecipeCreated(ctx context.Context, e cloudevents.Event) error {
	if err := setup(ctx); err != nil {
		return err
	}
	data, err := eventData(e)
	if err != nil {
		return err
	}
	recipe := recipedb.RecipeFromEventDocument(data.GetValue())
	if err := maintainer.RecipeCreated(ctx, recipe); err != nil {
		slog.ErrorContext(ctx, "recipe-events: created counters not updated", "recipe", recipe.Name, "error", err)
	}
	return nil
}

func onRecipeUpdated(ctx context.Context, e cloudevents.Event) error {
	if err := setup(ctx); err != nil {
		return err
	}
	data, err := eventData(e)
	if err != nil {
		return err
	}
	before := recipedb.RecipeFromEventDocument(data.GetOldValue())
	after := recipedb.RecipeFromEventDocument(data.GetValue())
	if err := maintainer.RecipeUpdated(ctx, before, after); err != nil {
		slog.ErrorContext(ctx, "recipe-events: updated counters not updated", "recipe", after.Name, "error", err)
	}
	return nil
}

func onRecipeDeleted(ctx context.Context, e cloudevents.Event) error {
	if err := setup(ctx); err != nil {
		return err
	}
	data, err := eventData(e)
	if err != nil {
		return err
	}
	recipe := recipedb.RecipeFromEventDocument(data.GetOldValue())
	if err := maintainer.RecipeDeleted(ctx, recipe); err != nil {
		slog.ErrorContext(ctx, "recipe-events: deleted counters not updated", "recipe", recipe.Name, "error", err)
	}
	return nil
}

// dailyPublishSweep is invoked by the scheduler once a day to flip
// scheduled recipes whose publish date has passed.
func dailyPublishSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := setup(ctx); err != nil {
		slog.ErrorContext(ctx, "recipe-events: initialization failed", "error", err)
		http.Error(w, "Internal Server Error: failed to initialize", http.StatusInternalServerError)
		return
	}

	published, err := sweeper.Run(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "recipe-events: publish sweep failed", "published", published, "error", err)
		http.Error(w, "Internal Server Error: sweep failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"published": published})
}
