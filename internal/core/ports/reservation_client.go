package ports

import (
	"context"
	"io"

	"github.com/tablebook/reservation-client/internal/core/domain"
)

// TableFilter narrows the table listing to a date and time slot.
type TableFilter struct {
	Date string
	Time string
}

// ReservationClient wraps the non-auth REST endpoints of the backend.
type ReservationClient interface {
	ListTables(ctx context.Context, filter TableFilter) ([]domain.Table, error)
	GetTable(ctx context.Context, id string) (*domain.Table, error)
	CreateTable(ctx context.Context, table domain.Table) (*domain.Table, error)
	UpdateTable(ctx context.Context, id string, table domain.Table) (*domain.Table, error)
	DeleteTable(ctx context.Context, id string) error

	CreateBooking(ctx context.Context, booking domain.Booking) (*domain.Booking, error)
	MyBookings(ctx context.Context) ([]domain.Booking, error)
	UpdateBooking(ctx context.Context, id string, booking domain.Booking) (*domain.Booking, error)
	CancelBooking(ctx context.Context, id string) (*domain.Booking, error)
	DeleteBooking(ctx context.Context, id string) error

	Upload(ctx context.Context, filename string, content io.Reader) (*domain.UploadResult, error)

	SendContact(ctx context.Context, msg domain.ContactMessage) (string, error)
	ListAdminContacts(ctx context.Context) ([]domain.AdminContact, error)
}
