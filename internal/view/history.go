package view

import (
	"context"

	"github.com/rs/zerolog"

	"washdesk/internal/models"
	"washdesk/internal/status"
)

// History is the customer-facing booking list. It loads one customer's
// bookings newest first, and the only mutation it allows is cancellation of
// a still-pending booking. A successful cancel reloads the list so the row
// shows exactly what the backend recorded.
type History struct {
	board      *Board
	customerID int64
}

// CustomerSource returns a Source bound to one customer id.
type CustomerSource func(ctx context.Context, customerID int64) ([]models.Booking, error)

func NewHistory(customerID int64, fetch CustomerSource, gw Gateway, notifier Notifier, logger *zerolog.Logger) *History {
	src := func(ctx context.Context) ([]models.Booking, error) {
		return fetch(ctx, customerID)
	}
	b := NewBoard("customer_history", src, gw, notifier, logger, RefreshAfterSuccess)
	b.sortLoad = true
	return &History{board: b, customerID: customerID}
}

func (h *History) CustomerID() int64 { return h.customerID }

func (h *History) Load(ctx context.Context) error { return h.board.Load(ctx) }

func (h *History) Snapshot() []models.Booking { return h.board.Snapshot() }

func (h *History) Filtered(filter string) []models.Booking { return h.board.Filtered(filter) }

func (h *History) Counts(filters []string) map[string]int { return h.board.Counts(filters) }

// CanCancel reports whether the cancel action should be offered for a
// booking in the loaded list.
func (h *History) CanCancel(bookingID int64) bool {
	b, ok := h.board.Get(bookingID)
	return ok && status.CanCancel(string(b.Status))
}

// Cancel cancels a pending booking optimistically and reloads on success.
func (h *History) Cancel(ctx context.Context, bookingID int64) error {
	return h.board.Cancel(ctx, bookingID)
}
