package models

// MenuItemOption is a selectable variant (size, type) of a menu item.
// When selected its price replaces the item's base price.
type MenuItemOption struct {
	Name   string  `json:"name"`
	NameEn string  `json:"name_en,omitempty"`
	Price  float64 `json:"price"`
}

type MenuItem struct {
	ID            string           `json:"id,omitempty"`
	Name          string           `json:"name"`
	NameEn        string           `json:"name_en,omitempty"`
	Description   string           `json:"description"`
	DescriptionEn string           `json:"description_en,omitempty"`
	Price         float64          `json:"price"`
	Category      string           `json:"category"`
	CategoryEn    string           `json:"category_en,omitempty"`
	Show          bool             `json:"show"`
	Image         string           `json:"image,omitempty"`
	Options       []MenuItemOption `json:"options,omitempty"`
}

type RestaurantMenu struct {
	Categories   []string   `json:"categories"`
	CategoriesEn []string   `json:"categories_en"`
	Items        []MenuItem `json:"items"`
}

// EmptyMenu returns a menu whose collections marshal as [] rather than null.
func EmptyMenu() RestaurantMenu {
	return RestaurantMenu{
		Categories:   []string{},
		CategoriesEn: []string{},
		Items:        []MenuItem{},
	}
}

type Features struct {
	Delivery    bool `json:"delivery"`
	Takeaway    bool `json:"takeaway"`
	Reservation bool `json:"reservation"`
}

type Branch struct {
	ID             string   `json:"id"`
	Address        string   `json:"address"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	WhatsAppNumber string   `json:"whatsAppNumber,omitempty"`
}

type RestaurantDetails struct {
	ID             string   `json:"id"`
	RestaurantName string   `json:"restaurantName"`
	Address        string   `json:"address"`
	LogoURL        string   `json:"logoURL"`
	WhatsAppNumber string   `json:"whatsAppNumber,omitempty"`
	FacebookURL    string   `json:"facebookURL,omitempty"`
	InstagramURL   string   `json:"instagramURL,omitempty"`
	WebsiteURL     string   `json:"websiteURL,omitempty"`
	Category       string   `json:"category,omitempty"`
	Rating         float64  `json:"rating"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	Features       Features `json:"features"`
	Branches       []Branch `json:"branches"`
}

// Branch looks up a branch by id.
func (d *RestaurantDetails) Branch(id string) (*Branch, bool) {
	for i := range d.Branches {
		if d.Branches[i].ID == id {
			return &d.Branches[i], true
		}
	}
	return nil, false
}

// CombinedRestaurantData is the unit returned for a single restaurant lookup.
type CombinedRestaurantData struct {
	Details RestaurantDetails `json:"details"`
	Menu    RestaurantMenu    `json:"menu"`
}

// RestaurantSummary is a list entry with a display-ready features label.
type RestaurantSummary struct {
	RestaurantDetails
	FeaturesText string `json:"features_text"`
}
