package normalizer

import (
	"strings"

	"menu-service/models"
)

// ExtractMenu maps a menu payload to the canonical menu: visible items only,
// with categories drawn from those items in first-seen order.
func ExtractMenu(doc Value) models.RestaurantMenu {
	menu := models.EmptyMenu()
	if doc.IsNull() {
		return menu
	}

	raw := Elements(doc.Field("items"))
	if raw == nil {
		raw = Elements(documentFields(doc).Field("items"))
	}

	for _, e := range raw {
		item := ExtractMenuItem(e)
		if !IsVisible(item) {
			continue
		}
		menu.Items = append(menu.Items, item)
	}

	menu.Categories = distinct(menu.Items, func(i models.MenuItem) string { return i.Category })
	menu.CategoriesEn = distinct(menu.Items, func(i models.MenuItem) string { return i.CategoryEn })
	return menu
}

// ExtractMenuItem maps a single item element. Primary-language name and
// category are backfilled from their English variants, never the reverse.
func ExtractMenuItem(e Value) models.MenuItem {
	f := FieldBag(e)

	item := models.MenuItem{
		ID:            String(f.Field("id")),
		Name:          String(f.Field("name")),
		NameEn:        String(f.Field("name_en")),
		Description:   String(f.Field("description")),
		DescriptionEn: String(f.Field("description_en")),
		Price:         Number(f.Field("price")),
		Category:      String(f.Field("category")),
		CategoryEn:    String(f.Field("category_en")),
		Show:          Bool(f.Field("show")),
		Image:         ResolveImageURL(String(f.Field("image"))),
	}

	if item.Name == "" && item.NameEn != "" {
		item.Name = item.NameEn
	}
	if item.Category == "" && item.CategoryEn != "" {
		item.Category = item.CategoryEn
	}

	if opts := ExtractOptions(f.Field("options")); len(opts) > 0 {
		item.Options = opts
	}
	return item
}

// IsVisible reports whether an extracted item belongs on the menu.
func IsVisible(item models.MenuItem) bool {
	return item.Show && (item.Name != "" || item.NameEn != "")
}

// ExtractOptions keeps options that are named in either language and priced
// above zero.
func ExtractOptions(v Value) []models.MenuItemOption {
	var out []models.MenuItemOption
	for _, e := range Elements(v) {
		f := FieldBag(e)
		opt := models.MenuItemOption{
			Name:   String(f.Field("name")),
			NameEn: String(f.Field("name_en")),
			Price:  Number(f.Field("price")),
		}
		if opt.Name == "" {
			opt.Name = opt.NameEn
		}
		if opt.Name == "" || opt.Price <= 0 {
			continue
		}
		out = append(out, opt)
	}
	return out
}

func distinct(items []models.MenuItem, key func(models.MenuItem) string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, it := range items {
		k := strings.TrimSpace(key(it))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
