package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tablebook/reservation-client/internal/core/domain"
)

// CartManager is the cart as seen by the HTTP host.
type CartManager interface {
	Items() []domain.CartItem
	Add(ctx context.Context, item domain.CartItem) (bool, error)
	Remove(ctx context.Context, name string) error
	UpdateQuantity(ctx context.Context, name string, quantity int) error
	Clear(ctx context.Context) error
	Total() float64
	Count() int
	RestaurantID() string
}

type CartHandler struct {
	cart CartManager
}

func NewCartHandler(cart CartManager) *CartHandler {
	return &CartHandler{cart: cart}
}

type addCartItemRequest struct {
	Name           string  `json:"name" validate:"required"`
	Price          float64 `json:"price" validate:"gte=0"`
	Quantity       int     `json:"quantity" validate:"gte=0"`
	RestaurantID   string  `json:"restaurantId" validate:"required"`
	RestaurantName string  `json:"restaurantName"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type cartResponse struct {
	Items        []domain.CartItem `json:"items"`
	Total        float64           `json:"total"`
	Count        int               `json:"count"`
	RestaurantID string            `json:"restaurantId,omitempty"`
	// Replaced is set when adding an item discarded another restaurant's cart.
	Replaced bool `json:"replaced,omitempty"`
}

func (h *CartHandler) snapshot() cartResponse {
	items := h.cart.Items()
	if items == nil {
		items = []domain.CartItem{}
	}
	return cartResponse{
		Items:        items,
		Total:        h.cart.Total(),
		Count:        h.cart.Count(),
		RestaurantID: h.cart.RestaurantID(),
	}
}

// Get handles GET /cart.
//
// @Summary      Current cart
// @Tags         cart
// @Produce      json
// @Success      200  {object}  cartResponse
// @Router       /cart [get]
func (h *CartHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.snapshot())
}

// AddItem handles POST /cart/items.
//
// @Summary      Add a dish to the cart
// @Description  A dish from another restaurant replaces the whole cart.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        body  body      addCartItemRequest  true  "Dish"
// @Success      200   {object}  cartResponse
// @Failure      400   {object}  map[string]string
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c echo.Context) error {
	var req addCartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	replaced, err := h.cart.Add(c.Request().Context(), domain.CartItem{
		Name:           req.Name,
		Price:          req.Price,
		Quantity:       req.Quantity,
		RestaurantID:   req.RestaurantID,
		RestaurantName: req.RestaurantName,
	})
	if err != nil {
		return err
	}

	resp := h.snapshot()
	resp.Replaced = replaced
	return c.JSON(http.StatusOK, resp)
}

// UpdateItem handles PATCH /cart/items/:name. A quantity below one removes
// the line.
//
// @Summary      Change the quantity of a cart line
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        name  path      string                 true  "Dish name"
// @Param        body  body      updateQuantityRequest  true  "New quantity"
// @Success      200   {object}  cartResponse
// @Failure      404   {object}  map[string]string
// @Router       /cart/items/{name} [patch]
func (h *CartHandler) UpdateItem(c echo.Context) error {
	var req updateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.cart.UpdateQuantity(c.Request().Context(), c.Param("name"), req.Quantity); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.snapshot())
}

// RemoveItem handles DELETE /cart/items/:name.
//
// @Summary      Remove a cart line
// @Tags         cart
// @Produce      json
// @Param        name  path      string  true  "Dish name"
// @Success      200   {object}  cartResponse
// @Failure      404   {object}  map[string]string
// @Router       /cart/items/{name} [delete]
func (h *CartHandler) RemoveItem(c echo.Context) error {
	if err := h.cart.Remove(c.Request().Context(), c.Param("name")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.snapshot())
}

// Clear handles DELETE /cart.
//
// @Summary      Empty the cart
// @Tags         cart
// @Produce      json
// @Success      200  {object}  cartResponse
// @Router       /cart [delete]
func (h *CartHandler) Clear(c echo.Context) error {
	if err := h.cart.Clear(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.snapshot())
}
