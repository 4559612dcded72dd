package store_models

import "encoding/json"

// CartItem is one purchased line as encoded in the provider's checkout
// metadata under the "cart" key.
type CartItem struct {
	TicketTypeID int64   `json:"ticketTypeId"`
	Quantity     int     `json:"quantity"`
	PricePerUnit float64 `json:"pricePerUnit"`
}

func ParseCart(raw string) ([]CartItem, error) {
	if raw == "" {
		return nil, nil
	}
	var cart []CartItem
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func CartQuantity(cart []CartItem) int {
	var total int
	for _, item := range cart {
		total += item.Quantity
	}
	return total
}

func CartSubtotal(cart []CartItem) float64 {
	var total float64
	for _, item := range cart {
		total += item.PricePerUnit * float64(item.Quantity)
	}
	return total
}
