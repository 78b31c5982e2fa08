package recipedb

import (
	"strings"
	"time"
)

const (
	// RecipesCollection is the Firestore collection holding one document per recipe.
	RecipesCollection = "recipes-db"

	// CountersCollection is the Firestore collection holding the denormalized
	// recipe counters.
	CountersCollection = "recipeCounts"
)

// Counter document IDs within CountersCollection.
const (
	CounterAll       = "all"
	CounterPublished = "published"
)

// Category is the fixed set of recipe categories.
type Category string

const (
	CategoryBreadsSandwichesAndPizza Category = "breadsSandwichesAndPizza"
	CategoryEggsAndBreakfast         Category = "eggsAndBreakfast"
	CategoryDessertsAndBakedGoods    Category = "dessertsAndBakedGoods"
	CategoryFishAndSeafood           Category = "fishAndSeafood"
	CategoryVegetables               Category = "vegetables"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryBreadsSandwichesAndPizza, CategoryEggsAndBreakfast,
		CategoryDessertsAndBakedGoods, CategoryFishAndSeafood, CategoryVegetables:
		return true
	}
	return false
}

// Recipe represents a recipe stored in Firestore.
type Recipe struct {
	// ID is the Firestore document ID. It is not stored inside the document.
	ID string `firestore:"-"`

	// Name is the name of the recipe.
	Name string `firestore:"name"`

	// Category is the category of the recipe.
	Category Category `firestore:"category"`

	// Directions are the preparation directions as free-form text.
	Directions string `firestore:"directions"`

	// PublishDate is the time at which the recipe becomes published.
	PublishDate time.Time `firestore:"publishDate"`

	// IsPublished is derived from PublishDate at write time. Recipes
	// scheduled in the future are flipped by the daily publish sweep.
	IsPublished bool `firestore:"isPublished"`

	// Ingredients are the ingredients of the recipe, in order.
	Ingredients []string `firestore:"ingredients"`

	// ImageURL is the URL for the image of the recipe, if any.
	ImageURL string `firestore:"imageUrl"`
}

// Counter is a denormalized recipe count stored in Firestore.
type Counter struct {
	Count int64 `firestore:"count"`
}

// RecipePayload is the wire form of a recipe. PublishDate travels as Unix
// seconds; conversion to the stored timestamp happens here, at the model
// boundary.
type RecipePayload struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Directions  string   `json:"directions"`
	PublishDate int64    `json:"publishDate"`
	IsPublished bool     `json:"isPublished"`
	Ingredients []string `json:"ingredients"`
	ImageURL    string   `json:"imageUrl"`

	// ImageDataURL optionally carries image content as a data URL. It is
	// saved to blob storage on create/update and never persisted itself.
	ImageDataURL string `json:"imageDataUrl,omitempty"`
}

// ValidationError lists the recipe fields that are missing or invalid.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "Recipe is not valid. Missing/invalid fields: " + strings.Join(e.Fields, ", ")
}

// Validate checks the payload fields required for create and update. All
// failing fields are collected into a single error rather than failing on
// the first.
func (p RecipePayload) Validate() error {
	var fields []string
	if p.Name == "" {
		fields = append(fields, "name")
	}
	if !p.Category.Valid() {
		fields = append(fields, "category")
	}
	if p.Directions == "" {
		fields = append(fields, "directions")
	}
	if p.PublishDate == 0 {
		fields = append(fields, "publishDate")
	}
	if len(p.Ingredients) == 0 {
		fields = append(fields, "ingredients")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Recipe converts the payload to its stored form. Only schema fields carry
// over, and IsPublished is recomputed from the publish date rather than
// trusted from the client.
func (p RecipePayload) Recipe(now time.Time) Recipe {
	return Recipe{
		Name:        p.Name,
		Category:    p.Category,
		Directions:  p.Directions,
		PublishDate: time.Unix(p.PublishDate, 0).UTC(),
		IsPublished: p.PublishDate <= now.Unix(),
		Ingredients: p.Ingredients,
		ImageURL:    p.ImageURL,
	}
}

// Payload converts a stored recipe to its wire form.
func (r Recipe) Payload() RecipePayload {
	return RecipePayload{
		ID:          r.ID,
		Name:        r.Name,
		Category:    r.Category,
		Directions:  r.Directions,
		PublishDate: r.PublishDate.Unix(),
		IsPublished: r.IsPublished,
		Ingredients: r.Ingredients,
		ImageURL:    r.ImageURL,
	}
}
