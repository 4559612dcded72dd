package store_models

import "time"

// TicketType is the store's inventory unit. availableQuantity must never go
// negative; soldQuantity only ever grows except when the store reverses a
// cancelled update.
type TicketType struct {
	ID                int64      `json:"id"`
	EventID           int64      `json:"eventId"`
	Name              string     `json:"name,omitempty"`
	Price             float64    `json:"price"`
	AvailableQuantity int        `json:"availableQuantity"`
	SoldQuantity      int        `json:"soldQuantity"`
	MinPerOrder       int        `json:"minPerOrder,omitempty"`
	MaxPerOrder       int        `json:"maxPerOrder,omitempty"`
	SaleStartDate     *time.Time `json:"saleStartDate,omitempty"`
	SaleEndDate       *time.Time `json:"saleEndDate,omitempty"`
	UpdatedAt         time.Time  `json:"updatedAt,omitempty"`
}

type Event struct {
	ID           int64     `json:"id"`
	TenantID     string    `json:"tenantId,omitempty"`
	Name         string    `json:"name"`
	Venue        string    `json:"venue,omitempty"`
	StartsAt     time.Time `json:"startsAt,omitempty"`
	HeroImageURL string    `json:"heroImageUrl,omitempty"`
}
