package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tablebook/reservation-client/internal/core/domain"
	"github.com/tablebook/reservation-client/internal/core/ports"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestReservationClient(t *testing.T, token string, h http.HandlerFunc) *ReservationClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewReservationClient(NewClient(srv.URL, srv.Client(), zerolog.Nop()), staticToken(token))
}

func TestReservationClient_ListTables_Filters(t *testing.T) {
	client := newTestReservationClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tables" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("date") != "2026-01-02" || r.URL.Query().Get("time") != "19:00" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("Authorization") != "" {
			t.Fatalf("public endpoint should not carry a token")
		}
		reply(w, http.StatusOK, `[{"_id":"t1","name":"Window","capacity":4},{"_id":"t2","name":"Patio","capacity":2}]`)
	})

	tables, err := client.ListTables(context.Background(), ports.TableFilter{Date: "2026-01-02", Time: "19:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tables) != 2 || tables[0].ID != "t1" || tables[1].Capacity != 2 {
		t.Fatalf("unexpected tables: %+v", tables)
	}
}

func TestReservationClient_ListTables_WrappedResponse(t *testing.T) {
	client := newTestReservationClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"tables":[{"_id":"t1","name":"Window","capacity":4}]}`)
	})

	tables, err := client.ListTables(context.Background(), ports.TableFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}
}

func TestReservationClient_MyBookings_RequiresToken(t *testing.T) {
	client := newTestReservationClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("backend should not be called")
	})

	_, err := client.MyBookings(context.Background())
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestReservationClient_CancelBooking(t *testing.T) {
	client := newTestReservationClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/bookings/b1/cancel" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Fatalf("missing bearer token")
		}
		reply(w, http.StatusOK, `{"_id":"b1","table":"t1","date":"2026-01-02","time":"19:00","guests":2,"status":"cancelled"}`)
	})

	booking, err := client.CancelBooking(context.Background(), "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != "cancelled" {
		t.Fatalf("expected cancelled, got %q", booking.Status)
	}
}

func TestReservationClient_DeleteTable_Forbidden(t *testing.T) {
	client := newTestReservationClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusForbidden, `{"message":"Admin only"}`)
	})

	err := client.DeleteTable(context.Background(), "t1")
	var api *domain.APIError
	if !errors.As(err, &api) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if api.Status != http.StatusForbidden || api.Message != "Admin only" {
		t.Fatalf("unexpected APIError: %+v", api)
	}
}

func TestReservationClient_Upload(t *testing.T) {
	client := newTestReservationClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("missing image part: %v", err)
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		if header.Filename != "dish.png" || string(content) != "png-bytes" {
			t.Fatalf("unexpected upload %s %q", header.Filename, content)
		}
		reply(w, http.StatusOK, `{"url":"https://cdn.example.com/dish.png"}`)
	})

	res, err := client.Upload(context.Background(), "/tmp/dish.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.URL != "https://cdn.example.com/dish.png" {
		t.Fatalf("unexpected url %q", res.URL)
	}
}

func TestReservationClient_SendContact_Validates(t *testing.T) {
	client := newTestReservationClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("backend should not be called")
	})

	_, err := client.SendContact(context.Background(), domain.ContactMessage{Name: "Ana", Email: "bad"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestClient_Ping(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := NewClient(srv.URL, srv.Client(), zerolog.Nop())
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("expected reachable backend, got %v", err)
	}
	srv.Close()
	if err := c.Ping(context.Background()); err == nil {
		t.Fatalf("expected error for closed backend")
	}
}
