package normalizer

import (
	"strings"

	"menu-service/models"
)

const (
	LangAr = "ar"
	LangEn = "en"
)

// SearchRestaurants keeps restaurants whose name, address or category
// contains term, case-insensitively. A blank term keeps everything.
func SearchRestaurants(list []models.RestaurantDetails, term string) []models.RestaurantDetails {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return list
	}

	out := []models.RestaurantDetails{}
	for _, r := range list {
		if strings.Contains(strings.ToLower(r.RestaurantName), term) ||
			strings.Contains(strings.ToLower(r.Address), term) ||
			strings.Contains(strings.ToLower(r.Category), term) {
			out = append(out, r)
		}
	}
	return out
}

// FilterByCategory keeps the items of one category, matched against either
// language. A blank category keeps every item.
func FilterByCategory(menu models.RestaurantMenu, category string) models.RestaurantMenu {
	category = strings.TrimSpace(category)
	if category == "" {
		return menu
	}

	filtered := []models.MenuItem{}
	for _, it := range menu.Items {
		if strings.TrimSpace(it.Category) == category || strings.TrimSpace(it.CategoryEn) == category {
			filtered = append(filtered, it)
		}
	}
	menu.Items = filtered
	return menu
}

// Localize presents a menu in the requested language. English falls back to
// the primary value per field when no translation exists.
func Localize(menu models.RestaurantMenu, lang string) models.RestaurantMenu {
	if lang != LangEn {
		return menu
	}

	items := make([]models.MenuItem, 0, len(menu.Items))
	for _, it := range menu.Items {
		it.Name = orElse(it.NameEn, it.Name)
		it.Description = orElse(it.DescriptionEn, it.Description)
		it.Category = orElse(it.CategoryEn, it.Category)
		if len(it.Options) > 0 {
			opts := make([]models.MenuItemOption, len(it.Options))
			for i, o := range it.Options {
				o.Name = orElse(o.NameEn, o.Name)
				opts[i] = o
			}
			it.Options = opts
		}
		items = append(items, it)
	}
	menu.Items = items

	if len(menu.CategoriesEn) > 0 {
		menu.Categories = menu.CategoriesEn
	}
	return menu
}

var featureLabels = map[string][3]string{
	LangAr: {"توصيل", "استلام", "حجز"},
	LangEn: {"Delivery", "Takeaway", "Reservation"},
}

var noFeaturesLabel = map[string]string{
	LangAr: "خدمات متوفرة",
	LangEn: "Services available",
}

// FeaturesText renders the enabled service flags as a single label.
func FeaturesText(f models.Features, lang string) string {
	labels, ok := featureLabels[lang]
	if !ok {
		lang = LangAr
		labels = featureLabels[LangAr]
	}

	var parts []string
	for i, on := range [3]bool{f.Delivery, f.Takeaway, f.Reservation} {
		if on {
			parts = append(parts, labels[i])
		}
	}
	if len(parts) == 0 {
		return noFeaturesLabel[lang]
	}
	return strings.Join(parts, " • ")
}

func orElse(preferred, fallback string) string {
	if preferred != "" {
		return preferred
	}
	return fallback
}
