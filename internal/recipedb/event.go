package recipedb

import (
	"strings"

	"github.com/googleapis/google-cloudevents-go/cloud/firestoredata"
)

// RecipeFromEventDocument maps a Firestore change-event document onto a
// Recipe. Unknown fields in the document are ignored, and missing fields
// are left at their zero values, mirroring DataTo behavior on reads.
func RecipeFromEventDocument(doc *firestoredata.Document) Recipe {
	if doc == nil {
		return Recipe{}
	}
	recipe := Recipe{
		// Document names are full resource paths; the ID is the last segment.
		ID: doc.GetName()[strings.LastIndex(doc.GetName(), "/")+1:],
	}
	for name, value := range doc.GetFields() {
		switch name {
		case "name":
			recipe.Name = value.GetStringValue()
		case "category":
			recipe.Category = Category(value.GetStringValue())
		case "directions":
			recipe.Directions = value.GetStringValue()
		case "publishDate":
			recipe.PublishDate = value.GetTimestampValue().AsTime()
		case "isPublished":
			recipe.IsPublished = value.GetBooleanValue()
		case "ingredients":
			for _, v := range value.GetArrayValue().GetValues() {
				recipe.Ingredients = append(recipe.Ingredients, v.GetStringValue())
			}
		case "imageUrl":
			recipe.ImageURL = value.GetStringValue()
		}
	}
	return recipe
}
