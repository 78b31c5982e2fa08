package sweep

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/andrewgjh/recipes-webapp/internal/recipedb"
)

func TestShouldPublish(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, shouldPublish(recipedb.Recipe{PublishDate: now.Add(-time.Minute)}, now))
	assert.True(t, shouldPublish(recipedb.Recipe{PublishDate: now}, now), "publish instant counts as published")
	assert.False(t, shouldPublish(recipedb.Recipe{PublishDate: now.Add(time.Minute)}, now))
}
