package domain

// MenuItem is a dish offered by a restaurant.
type MenuItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Category    string  `json:"category,omitempty"`
	Image       string  `json:"image,omitempty"`
}

// Offer is a promotional deal attached to a restaurant.
type Offer struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Discount    float64 `json:"discount,omitempty"`
	ValidUntil  string  `json:"validUntil,omitempty"`
}

// Table is a bookable restaurant table as served by the backend.
type Table struct {
	ID             string     `json:"_id,omitempty"`
	Name           string     `json:"name" validate:"required"`
	RestaurantName string     `json:"restaurantName,omitempty"`
	Location       string     `json:"location,omitempty"`
	Cuisine        string     `json:"cuisine,omitempty"`
	Capacity       int        `json:"capacity" validate:"gte=1"`
	Description    string     `json:"description,omitempty"`
	Image          string     `json:"image,omitempty"`
	Available      *bool      `json:"available,omitempty"`
	Menu           []MenuItem `json:"menu,omitempty"`
	Offers         []Offer    `json:"offers,omitempty"`
}

// Booking is a table reservation, optionally with pre-ordered food.
type Booking struct {
	ID              string     `json:"_id,omitempty"`
	TableID         string     `json:"table" validate:"required"`
	Date            string     `json:"date" validate:"required"`
	Time            string     `json:"time" validate:"required"`
	Guests          int        `json:"guests" validate:"gte=1"`
	Status          string     `json:"status,omitempty"`
	SpecialRequests string     `json:"specialRequests,omitempty"`
	FoodItems       []CartItem `json:"foodItems,omitempty"`
}

// ContactMessage is submitted through the public contact form.
type ContactMessage struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message" validate:"required"`
}

// AdminContact is a publicly listed administrator address.
type AdminContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UploadResult is returned by the image upload endpoint.
type UploadResult struct {
	URL string `json:"url"`
}
