package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/tablebook/reservation-client/internal/core/domain"
	"github.com/tablebook/reservation-client/internal/core/ports"
)

// ReservationClient implements ports.ReservationClient. Authenticated calls
// read the bearer token from tokens at call time.
type ReservationClient struct {
	c      *Client
	tokens ports.TokenSource
}

var _ ports.ReservationClient = (*ReservationClient)(nil)

func NewReservationClient(c *Client, tokens ports.TokenSource) *ReservationClient {
	return &ReservationClient{c: c, tokens: tokens}
}

func (r *ReservationClient) bearer() (string, error) {
	if r.tokens == nil {
		return "", domain.ErrMissingCredential
	}
	token := r.tokens.Token()
	if token == "" {
		return "", domain.ErrMissingCredential
	}
	return token, nil
}

// authed runs req with the current bearer token attached.
func (r *ReservationClient) authed(ctx context.Context, req request, out any) error {
	token, err := r.bearer()
	if err != nil {
		return err
	}
	req.Token = token
	return r.c.do(ctx, req, out)
}

func (r *ReservationClient) ListTables(ctx context.Context, filter ports.TableFilter) ([]domain.Table, error) {
	q := url.Values{}
	if filter.Date != "" {
		q.Set("date", filter.Date)
	}
	if filter.Time != "" {
		q.Set("time", filter.Time)
	}
	path := "/tables"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var raw json.RawMessage
	if err := r.c.do(ctx, request{Method: http.MethodGet, Route: "/tables", Path: path}, &raw); err != nil {
		return nil, err
	}
	var tables []domain.Table
	if err := decodeList(raw, "tables", &tables); err != nil {
		return nil, err
	}
	return tables, nil
}

func (r *ReservationClient) GetTable(ctx context.Context, id string) (*domain.Table, error) {
	var out domain.Table
	err := r.c.do(ctx, request{Method: http.MethodGet, Route: "/tables/:id", Path: "/tables/" + url.PathEscape(id)}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ReservationClient) CreateTable(ctx context.Context, table domain.Table) (*domain.Table, error) {
	if err := r.c.validate.Struct(table); err != nil {
		return nil, err
	}
	var out domain.Table
	if err := r.authed(ctx, request{Method: http.MethodPost, Route: "/tables", Path: "/tables", Body: table}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ReservationClient) UpdateTable(ctx context.Context, id string, table domain.Table) (*domain.Table, error) {
	var out domain.Table
	err := r.authed(ctx, request{Method: http.MethodPut, Route: "/tables/:id", Path: "/tables/" + url.PathEscape(id), Body: table}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ReservationClient) DeleteTable(ctx context.Context, id string) error {
	return r.authed(ctx, request{Method: http.MethodDelete, Route: "/tables/:id", Path: "/tables/" + url.PathEscape(id)}, nil)
}

func (r *ReservationClient) CreateBooking(ctx context.Context, booking domain.Booking) (*domain.Booking, error) {
	if err := r.c.validate.Struct(booking); err != nil {
		return nil, err
	}
	var out domain.Booking
	if err := r.authed(ctx, request{Method: http.MethodPost, Route: "/bookings", Path: "/bookings", Body: booking}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ReservationClient) MyBookings(ctx context.Context) ([]domain.Booking, error) {
	var raw json.RawMessage
	if err := r.authed(ctx, request{Method: http.MethodGet, Route: "/bookings/me", Path: "/bookings/me"}, &raw); err != nil {
		return nil, err
	}
	var bookings []domain.Booking
	if err := decodeList(raw, "bookings", &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *ReservationClient) UpdateBooking(ctx context.Context, id string, booking domain.Booking) (*domain.Booking, error) {
	var out domain.Booking
	err := r.authed(ctx, request{Method: http.MethodPut, Route: "/bookings/:id", Path: "/bookings/" + url.PathEscape(id), Body: booking}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ReservationClient) CancelBooking(ctx context.Context, id string) (*domain.Booking, error) {
	var out domain.Booking
	err := r.authed(ctx, request{Method: http.MethodPost, Route: "/bookings/:id/cancel", Path: "/bookings/" + url.PathEscape(id) + "/cancel"}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ReservationClient) DeleteBooking(ctx context.Context, id string) error {
	return r.authed(ctx, request{Method: http.MethodDelete, Route: "/bookings/:id", Path: "/bookings/" + url.PathEscape(id)}, nil)
}

// Upload sends content as the "image" part of a multipart form.
func (r *ReservationClient) Upload(ctx context.Context, filename string, content io.Reader) (*domain.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("copy upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	var out domain.UploadResult
	err = r.authed(ctx, request{
		Method:      http.MethodPost,
		Route:       "/upload",
		Path:        "/upload",
		RawBody:     &buf,
		ContentType: mw.FormDataContentType(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ReservationClient) SendContact(ctx context.Context, msg domain.ContactMessage) (string, error) {
	if err := r.c.validate.Struct(msg); err != nil {
		return "", err
	}
	var out messageResponse
	if err := r.c.do(ctx, request{Method: http.MethodPost, Route: "/contact", Path: "/contact", Body: msg}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (r *ReservationClient) ListAdminContacts(ctx context.Context) ([]domain.AdminContact, error) {
	var raw json.RawMessage
	if err := r.c.do(ctx, request{Method: http.MethodGet, Route: "/contact/admins", Path: "/contact/admins"}, &raw); err != nil {
		return nil, err
	}
	var admins []domain.AdminContact
	if err := decodeList(raw, "admins", &admins); err != nil {
		return nil, err
	}
	return admins, nil
}

// decodeList accepts either a bare JSON array or an object wrapping it under
// key (or "data").
func decodeList(raw json.RawMessage, key string, out any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '[' {
		return decodeOrAPIError(raw, out)
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return &domain.APIError{Status: http.StatusOK, Message: "Invalid response from server", Err: err}
	}
	for _, k := range []string{key, "data"} {
		if inner, ok := wrapped[k]; ok {
			return decodeOrAPIError(inner, out)
		}
	}
	return nil
}

func decodeOrAPIError(raw json.RawMessage, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.APIError{Status: http.StatusOK, Message: "Invalid response from server", Err: err}
	}
	return nil
}
