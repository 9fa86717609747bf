// Package normalizer turns upstream restaurant payloads into the canonical
// models. Two wire dialects are accepted at every nesting level: flat JSON
// scalars, and the document-store typed envelope
// ({stringValue}, {integerValue}, {arrayValue:{values}}, {mapValue:{fields}}).
package normalizer

import (
	"fmt"

	"menu-service/models"

	"go.uber.org/zap"
)

// extractors used by Transform; swapped in tests.
var (
	extractDetails = ExtractDetails
	extractMenu    = ExtractMenu
)

// Transform maps a restaurant-data payload ({details, menu}) to the combined
// model. A null payload, or any failure while mapping, yields nil; callers
// never receive a partially populated result.
func Transform(payload Value) (result *models.CombinedRestaurantData) {
	if payload.IsNull() {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("restaurant transform failed", zap.String("panic", fmt.Sprint(r)))
			result = nil
		}
	}()

	root := documentFields(payload)
	details := root.Field("details")
	menu := root.Field("menu")

	return &models.CombinedRestaurantData{
		Details: extractDetails(details),
		Menu:    extractMenu(FieldBag(menu)),
	}
}

// TransformJSON parses and transforms raw payload bytes.
func TransformJSON(data []byte) *models.CombinedRestaurantData {
	v, err := Parse(data)
	if err != nil {
		zap.L().Warn("restaurant payload is not valid JSON", zap.Error(err))
		return nil
	}
	return Transform(v)
}
