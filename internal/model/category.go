package model

import "time"

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type CategoryStat struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ItemCount      int    `json:"item_count"`
	AvailableCount int    `json:"available_count"`
}
