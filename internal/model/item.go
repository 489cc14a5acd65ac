package model

import "time"

const (
	ItemStatusAvailable = "available"
	ItemStatusSold      = "sold"
	ItemStatusReserved  = "reserved"
)

var ItemConditions = []string{"new", "like-new", "good", "fair", "poor"}

func ValidItemCondition(condition string) bool {
	for _, c := range ItemConditions {
		if c == condition {
			return true
		}
	}
	return false
}

func ValidItemStatus(status string) bool {
	return status == ItemStatusAvailable || status == ItemStatusSold || status == ItemStatusReserved
}

type Item struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"seller_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Condition   string    `json:"condition"`
	Status      string    `json:"status"`
	Location    string    `json:"location"`
	Negotiable  bool      `json:"negotiable"`
	Categories  []string  `json:"categories"`
	Views       int       `json:"views"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ItemFilters struct {
	Category   string
	MinPrice   *float64
	MaxPrice   *float64
	Condition  string
	Status     string
	Search     string
	Negotiable *bool
	Page       int
	Limit      int
	Sort       string
}
