package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tablebook/reservation-client/internal/core/domain"
	"github.com/tablebook/reservation-client/internal/core/ports"
)

// stubReservations implements the calls the tests exercise; the rest panic
// through the nil embedded interface.
type stubReservations struct {
	ports.ReservationClient
	uploaded   string
	myBookings []domain.Booking
	filter     ports.TableFilter
}

func (s *stubReservations) Upload(_ context.Context, filename string, content io.Reader) (*domain.UploadResult, error) {
	body, _ := io.ReadAll(content)
	s.uploaded = filename + ":" + string(body)
	return &domain.UploadResult{URL: "https://cdn.example.com/" + filename}, nil
}

func (s *stubReservations) MyBookings(context.Context) ([]domain.Booking, error) {
	return s.myBookings, nil
}

func (s *stubReservations) ListTables(_ context.Context, filter ports.TableFilter) ([]domain.Table, error) {
	s.filter = filter
	return nil, nil
}

func TestReservationHandler_Upload(t *testing.T) {
	stub := &stubReservations{}
	h := NewReservationHandler(stub, zerolog.Nop())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("image", "dish.png")
	_, _ = part.Write([]byte("png"))
	_ = mw.Close()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/admin/upload", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Upload(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if stub.uploaded != "dish.png:png" {
		t.Fatalf("unexpected upload %q", stub.uploaded)
	}
}

func TestReservationHandler_Upload_MissingFile(t *testing.T) {
	h := NewReservationHandler(&stubReservations{}, zerolog.Nop())
	c, _ := newJSONContext(http.MethodPost, "/admin/upload", `{}`)

	err := h.Upload(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestReservationHandler_MyBookings_RequiresGuard(t *testing.T) {
	h := NewReservationHandler(&stubReservations{}, zerolog.Nop())
	c, _ := newJSONContext(http.MethodGet, "/bookings/me", "")

	err := h.MyBookings(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
}

func TestReservationHandler_MyBookings_EmptyList(t *testing.T) {
	h := NewReservationHandler(&stubReservations{}, zerolog.Nop())
	c, rec := newJSONContext(http.MethodGet, "/bookings/me", "")
	c.Set(SessionContextKey, domain.SessionState{User: &domain.Identity{ID: "1"}, Token: "tok"})

	if err := h.MyBookings(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty JSON array, got %q", body)
	}
}

func TestReservationHandler_ListTables_ForwardsFilter(t *testing.T) {
	stub := &stubReservations{}
	h := NewReservationHandler(stub, zerolog.Nop())
	c, rec := newJSONContext(http.MethodGet, "/tables?date=2026-01-02&time=19:00", "")

	if err := h.ListTables(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || stub.filter.Date != "2026-01-02" || stub.filter.Time != "19:00" {
		t.Fatalf("unexpected filter %+v (code %d)", stub.filter, rec.Code)
	}
}
