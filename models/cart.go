package models

import "time"

type SelectedOption struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// CartItem is one cart line. ID is the merge key: the item name, or
// "<name>-<option>" when an option is selected.
type CartItem struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Price          float64         `json:"price"`
	Image          string          `json:"image,omitempty"`
	Quantity       int             `json:"quantity"`
	SelectedOption *SelectedOption `json:"selectedOption,omitempty"`
	Notes          string          `json:"notes"`
}

// Cart is the persisted snapshot of a session's cart.
type Cart struct {
	SessionID string     `json:"session_id"`
	Items     []CartItem `json:"items"`
	IsOpen    bool       `json:"is_open"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartView is a cart snapshot plus its derived totals.
type CartView struct {
	Cart
	TotalPrice     float64 `json:"total_price"`
	TotalItemCount int     `json:"total_item_count"`
}

type CheckoutResult struct {
	WhatsAppURL string  `json:"whatsapp_url"`
	Message     string  `json:"message"`
	Total       float64 `json:"total"`
	ItemCount   int     `json:"item_count"`
}

type CheckoutEvent struct {
	Event        string     `json:"event"` // "cart.checkout"
	SessionID    string     `json:"session_id"`
	RestaurantID string     `json:"restaurant_id"`
	BranchID     string     `json:"branch_id,omitempty"`
	Phone        string     `json:"phone"`
	Items        []CartItem `json:"items"`
	Total        float64    `json:"total"`
	ItemCount    int        `json:"item_count"`
	Timestamp    time.Time  `json:"timestamp"`
}
