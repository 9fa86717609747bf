package normalizer

import (
	"strings"

	"menu-service/models"
)

// DefaultDetails is returned when a resolved restaurant has no details
// payload: empty strings, zero rating, every feature off.
func DefaultDetails() models.RestaurantDetails {
	return models.RestaurantDetails{
		Branches: []models.Branch{},
	}
}

// ExtractDetails maps a details payload in either dialect to the canonical
// record.
func ExtractDetails(doc Value) models.RestaurantDetails {
	if doc.IsNull() {
		return DefaultDetails()
	}

	f := documentFields(doc)

	branches := f.Field("branches")
	if branches.IsNull() {
		branches = doc.Field("branches")
	}

	latitude := firstNumber(f, "latitude", "lat")
	if latitude == 0 {
		latitude = Number(doc.Field("latitude"))
	}
	longitude := firstNumber(f, "longitude", "lng")
	if longitude == 0 {
		longitude = Number(doc.Field("longitude"))
	}

	return models.RestaurantDetails{
		ID:             String(f.Field("id")),
		RestaurantName: firstString(f, "restaurantName", "name"),
		Address:        String(f.Field("address")),
		LogoURL:        ResolveImageURL(firstString(f, "logoURL", "logo")),
		WhatsAppNumber: firstString(f, "whatsAppNumber", "phone"),
		FacebookURL:    firstString(f, "facebookURL", "facebook"),
		InstagramURL:   firstString(f, "instagramURL", "instagram"),
		WebsiteURL:     firstString(f, "websiteURL", "website"),
		Category:       String(f.Field("category")),
		Rating:         Number(f.Field("rating")),
		Latitude:       optionalNumber(latitude),
		Longitude:      optionalNumber(longitude),
		Features:       extractFeatures(f),
		Branches:       ExtractBranches(branches),
	}
}

// extractFeatures reads a nested features map, falling back to top-level
// flags for sheets that flatten them.
func extractFeatures(f Value) models.Features {
	nested := FieldBag(f.Field("features"))
	flag := func(name string) bool {
		return Bool(nested.Field(name)) || Bool(f.Field(name))
	}
	return models.Features{
		Delivery:    flag("delivery"),
		Takeaway:    flag("takeaway"),
		Reservation: flag("reservation"),
	}
}

// ExtractBranches maps a branch collection. Entries whose address is blank
// are dropped.
func ExtractBranches(v Value) []models.Branch {
	out := []models.Branch{}
	for _, e := range Elements(v) {
		f := FieldBag(e)

		address := strings.TrimSpace(String(f.Field("address")))
		if address == "" {
			continue
		}

		out = append(out, models.Branch{
			ID:             firstString(f, "branchId", "id"),
			Address:        address,
			Latitude:       optionalNumber(firstNumber(f, "lat", "latitude")),
			Longitude:      optionalNumber(firstNumber(f, "lng", "longitude")),
			WhatsAppNumber: firstString(f, "whatsapp", "whatsAppNumber"),
		})
	}
	return out
}

// ExtractRestaurants normalizes the active-restaurants list payload.
func ExtractRestaurants(v Value) []models.RestaurantDetails {
	out := []models.RestaurantDetails{}
	for _, e := range Elements(v) {
		if e.IsNull() {
			continue
		}
		out = append(out, ExtractDetails(FieldBag(e)))
	}
	return out
}
