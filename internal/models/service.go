package models

import "time"

// Service is a catalog entry. Bookings snapshot a service's name and price at
// creation time; later catalog edits never rewrite historical bookings.
type Service struct {
	ID          int64     `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Price       float64   `json:"price" yaml:"price"`
	Duration    int       `json:"duration" yaml:"duration"`
	Category    string    `json:"category" yaml:"category"`
	Active      bool      `json:"active" yaml:"active"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

type InventoryItem struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Quantity     int64     `json:"quantity"`
	Unit         string    `json:"unit"`
	ReorderLevel int64     `json:"reorder_level"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LowStock reports whether the item has fallen to its reorder level.
func (i *InventoryItem) LowStock() bool {
	return i.Quantity <= i.ReorderLevel
}
