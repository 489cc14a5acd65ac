package model

import "time"

type CartEntry struct {
	Item     Item      `json:"item"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"added_at"`
}

type Cart struct {
	Entries []CartEntry `json:"entries"`
	Total   float64     `json:"total"`
}

type WishlistEntry struct {
	Item    Item      `json:"item"`
	AddedAt time.Time `json:"added_at"`
}
