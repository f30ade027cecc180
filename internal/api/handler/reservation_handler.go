package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tablebook/reservation-client/internal/core/domain"
	"github.com/tablebook/reservation-client/internal/core/ports"
)

// ReservationHandler proxies the table, booking, contact and upload views to
// the backend. Guarded routes rely on the guard having admitted a session.
type ReservationHandler struct {
	client ports.ReservationClient
	log    zerolog.Logger
}

func NewReservationHandler(client ports.ReservationClient, log zerolog.Logger) *ReservationHandler {
	return &ReservationHandler{client: client, log: log}
}

type messageResponse struct {
	Message string `json:"message"`
}

// ListTables handles GET /tables.
//
// @Summary      List tables, optionally available at a date and time
// @Tags         tables
// @Produce      json
// @Param        date  query     string  false  "Date (YYYY-MM-DD)"
// @Param        time  query     string  false  "Time (HH:MM)"
// @Success      200   {array}   domain.Table
// @Failure      502   {object}  map[string]string
// @Router       /tables [get]
func (h *ReservationHandler) ListTables(c echo.Context) error {
	tables, err := h.client.ListTables(c.Request().Context(), ports.TableFilter{
		Date: c.QueryParam("date"),
		Time: c.QueryParam("time"),
	})
	if err != nil {
		return err
	}
	if tables == nil {
		tables = []domain.Table{}
	}
	return c.JSON(http.StatusOK, tables)
}

// GetTable handles GET /tables/:id.
//
// @Summary      Get a table with its menu and offers
// @Tags         tables
// @Produce      json
// @Param        id   path      string  true  "Table id"
// @Success      200  {object}  domain.Table
// @Failure      404  {object}  map[string]string
// @Router       /tables/{id} [get]
func (h *ReservationHandler) GetTable(c echo.Context) error {
	table, err := h.client.GetTable(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, table)
}

// CreateTable handles POST /admin/tables.
//
// @Summary      Create a table
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      domain.Table  true  "Table"
// @Success      201   {object}  domain.Table
// @Failure      400   {object}  map[string]string
// @Router       /admin/tables [post]
func (h *ReservationHandler) CreateTable(c echo.Context) error {
	var req domain.Table
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	table, err := h.client.CreateTable(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, table)
}

// UpdateTable handles PUT /admin/tables/:id.
//
// @Summary      Replace a table
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id    path      string        true  "Table id"
// @Param        body  body      domain.Table  true  "Table"
// @Success      200   {object}  domain.Table
// @Router       /admin/tables/{id} [put]
func (h *ReservationHandler) UpdateTable(c echo.Context) error {
	var req domain.Table
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	table, err := h.client.UpdateTable(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, table)
}

// DeleteTable handles DELETE /admin/tables/:id.
//
// @Summary      Delete a table
// @Tags         admin
// @Param        id   path  string  true  "Table id"
// @Success      204
// @Router       /admin/tables/{id} [delete]
func (h *ReservationHandler) DeleteTable(c echo.Context) error {
	if err := h.client.DeleteTable(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Upload handles POST /admin/upload with an "image" form file.
//
// @Summary      Upload an image
// @Tags         admin
// @Accept       multipart/form-data
// @Produce      json
// @Param        image  formData  file  true  "Image file"
// @Success      201    {object}  domain.UploadResult
// @Failure      400    {object}  map[string]string
// @Router       /admin/upload [post]
func (h *ReservationHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "image file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable image file")
	}
	defer f.Close()

	res, err := h.client.Upload(c.Request().Context(), fh.Filename, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

// MyBookings handles GET /bookings/me.
//
// @Summary      Bookings of the current user
// @Tags         bookings
// @Produce      json
// @Success      200  {array}   domain.Booking
// @Router       /bookings/me [get]
func (h *ReservationHandler) MyBookings(c echo.Context) error {
	user, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	bookings, err := h.client.MyBookings(c.Request().Context())
	if err != nil {
		return err
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	h.log.Debug().Str("user_id", user.ID).Int("count", len(bookings)).Msg("bookings listed")
	return c.JSON(http.StatusOK, bookings)
}

// CreateBooking handles POST /bookings.
//
// @Summary      Book a table
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        body  body      domain.Booking  true  "Booking"
// @Success      201   {object}  domain.Booking
// @Failure      400   {object}  map[string]string
// @Router       /bookings [post]
func (h *ReservationHandler) CreateBooking(c echo.Context) error {
	var req domain.Booking
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	booking, err := h.client.CreateBooking(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, booking)
}

// UpdateBooking handles PUT /bookings/:id.
//
// @Summary      Change a booking
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        id    path      string          true  "Booking id"
// @Param        body  body      domain.Booking  true  "Booking"
// @Success      200   {object}  domain.Booking
// @Router       /bookings/{id} [put]
func (h *ReservationHandler) UpdateBooking(c echo.Context) error {
	var req domain.Booking
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	booking, err := h.client.UpdateBooking(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, booking)
}

// CancelBooking handles POST /bookings/:id/cancel.
//
// @Summary      Cancel a booking
// @Tags         bookings
// @Produce      json
// @Param        id   path      string  true  "Booking id"
// @Success      200  {object}  domain.Booking
// @Router       /bookings/{id}/cancel [post]
func (h *ReservationHandler) CancelBooking(c echo.Context) error {
	booking, err := h.client.CancelBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, booking)
}

// DeleteBooking handles DELETE /bookings/:id.
//
// @Summary      Delete a booking
// @Tags         bookings
// @Param        id   path  string  true  "Booking id"
// @Success      204
// @Router       /bookings/{id} [delete]
func (h *ReservationHandler) DeleteBooking(c echo.Context) error {
	if err := h.client.DeleteBooking(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// SendContact handles POST /contact.
//
// @Summary      Send a message through the contact form
// @Tags         contact
// @Accept       json
// @Produce      json
// @Param        body  body      domain.ContactMessage  true  "Message"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /contact [post]
func (h *ReservationHandler) SendContact(c echo.Context) error {
	var req domain.ContactMessage
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	msg, err := h.client.SendContact(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msg})
}

// ListAdmins handles GET /contact/admins.
//
// @Summary      Public administrator contacts
// @Tags         contact
// @Produce      json
// @Success      200  {array}  domain.AdminContact
// @Router       /contact/admins [get]
func (h *ReservationHandler) ListAdmins(c echo.Context) error {
	admins, err := h.client.ListAdminContacts(c.Request().Context())
	if err != nil {
		return err
	}
	if admins == nil {
		admins = []domain.AdminContact{}
	}
	return c.JSON(http.StatusOK, admins)
}
