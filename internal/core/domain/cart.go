package domain

// CartItem is a single line of the food cart. Name is unique within a cart.
type CartItem struct {
	Name           string  `json:"name" validate:"required"`
	Price          float64 `json:"price" validate:"gte=0"`
	Quantity       int     `json:"quantity"`
	RestaurantID   string  `json:"restaurantId" validate:"required"`
	RestaurantName string  `json:"restaurantName"`
}

// Subtotal returns price times quantity.
func (c CartItem) Subtotal() float64 {
	return c.Price * float64(c.Quantity)
}
