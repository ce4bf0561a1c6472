package view

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"washdesk/internal/metrics"
	"washdesk/internal/models"
	"washdesk/internal/status"
)

// Gateway is the slice of the backend client a booking view needs.
type Gateway interface {
	UpdateBookingStatus(ctx context.Context, bookingID int64, st status.Status) error
	AssignEmployee(ctx context.Context, bookingID, employeeID int64) error
	GetAllEmployees(ctx context.Context) ([]models.Employee, error)
}

// Source fetches the booking list a view is responsible for.
type Source func(ctx context.Context) ([]models.Booking, error)

// RefreshPolicy decides whether a successful status mutation reloads the
// whole list from the backend afterwards.
type RefreshPolicy int

const (
	// RefreshNever keeps the optimistic value until the next explicit reload.
	RefreshNever RefreshPolicy = iota
	// RefreshAfterSuccess reloads the list once the backend confirms.
	RefreshAfterSuccess
)

// Board holds one view's booking list and applies status changes
// optimistically: the list is updated before the backend call, and reverted
// if the call fails. Readers between the call and the revert see the
// optimistic value.
type Board struct {
	name     string
	fetch    Source
	gw       Gateway
	notifier Notifier
	logger   zerolog.Logger
	policy   RefreshPolicy
	sortLoad bool

	mu        sync.RWMutex
	bookings  []models.Booking
	employees []models.Employee
	inFlight  map[int64]bool
}

// NewBoard creates a view over the bookings fetch returns. name labels
// metrics and log lines.
func NewBoard(name string, fetch Source, gw Gateway, notifier Notifier, logger *zerolog.Logger, policy RefreshPolicy) *Board {
	return &Board{
		name:     name,
		fetch:    fetch,
		gw:       gw,
		notifier: notifier,
		logger:   logger.With().Str("component", "view").Str("view", name).Logger(),
		policy:   policy,
		inFlight: make(map[int64]bool),
	}
}

// Load replaces the list with a fresh fetch from the backend.
func (b *Board) Load(ctx context.Context) error {
	bookings, err := b.fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to load bookings: %w", err)
	}
	if b.sortLoad {
		SortNewestFirst(bookings)
	}
	b.mu.Lock()
	b.bookings = bookings
	b.mu.Unlock()
	metrics.IncRefresh(b.name)
	b.logger.Debug().Int("count", len(bookings)).Msg("booking list loaded")
	return nil
}

// LoadEmployees refreshes the roster used by the assignment dialog.
func (b *Board) LoadEmployees(ctx context.Context) error {
	employees, err := b.gw.GetAllEmployees(ctx)
	if err != nil {
		return fmt.Errorf("failed to load employees: %w", err)
	}
	b.mu.Lock()
	b.employees = employees
	b.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current list.
func (b *Board) Snapshot() []models.Booking {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.Booking, len(b.bookings))
	copy(out, b.bookings)
	return out
}

// Employees returns a copy of the loaded roster.
func (b *Board) Employees() []models.Employee {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.Employee, len(b.employees))
	copy(out, b.employees)
	return out
}

// Get returns the booking with the given id, if loaded.
func (b *Board) Get(bookingID int64) (models.Booking, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i := b.indexOf(bookingID); i >= 0 {
		return b.bookings[i], true
	}
	return models.Booking{}, false
}

// Filtered returns the bookings matching a status filter.
func (b *Board) Filtered(filter string) []models.Booking {
	return Filter(b.Snapshot(), filter)
}

// Counts returns per-filter totals for the filter bar.
func (b *Board) Counts(filters []string) map[string]int {
	return CountByFilter(b.Snapshot(), filters)
}

// Reject moves a booking to Rejected.
func (b *Board) Reject(ctx context.Context, bookingID int64) error {
	return b.mutate(ctx, bookingID, status.Rejected,
		"Booking rejected successfully", "Failed to reject booking")
}

// Complete marks a booking as Completed. Allowed straight from Pending so an
// employee can close out a walk-in in one action.
func (b *Board) Complete(ctx context.Context, bookingID int64) error {
	return b.mutate(ctx, bookingID, status.Completed,
		"Booking marked as completed", "Failed to complete booking")
}

// Cancel moves a booking to Cancelled on the customer's behalf. The
// precondition is stricter than the transition table: only Pending bookings
// may be cancelled from here.
func (b *Board) Cancel(ctx context.Context, bookingID int64) error {
	b.mu.RLock()
	i := b.indexOf(bookingID)
	var current status.Status
	if i >= 0 {
		current = b.bookings[i].Status
	}
	b.mu.RUnlock()
	if i < 0 {
		return ErrBookingNotFound
	}
	if !status.CanCancel(string(current)) {
		return ErrCancellationClosed
	}
	return b.mutate(ctx, bookingID, status.Cancelled,
		"Booking cancelled successfully!", "Failed to cancel booking. Please try again.")
}

// SetStatus applies an arbitrary edit-dialog status change, subject to the
// transition table.
func (b *Board) SetStatus(ctx context.Context, bookingID int64, target status.Status) error {
	return b.mutate(ctx, bookingID, target,
		"Booking updated successfully", "Failed to update booking")
}

// Approve assigns an employee to a booking, which approves it on the
// backend as a side effect. The assignment is optimistic like any other
// mutation, but a successful call is always followed by a full reload so
// the backend-resolved employee name and status replace the local guess.
func (b *Board) Approve(ctx context.Context, bookingID, employeeID int64) error {
	if employeeID == 0 {
		return ErrNoEmployeeSelected
	}

	b.mu.Lock()
	i := b.indexOf(bookingID)
	if i < 0 {
		b.mu.Unlock()
		return ErrBookingNotFound
	}
	prev := b.bookings[i]
	if !status.CanTransition(prev.Status, status.Approved) {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s to %s", ErrIllegalTransition, prev.Status, status.Approved)
	}
	if b.inFlight[bookingID] {
		b.mu.Unlock()
		return ErrMutationInFlight
	}
	b.inFlight[bookingID] = true
	b.bookings[i].Status = status.Approved
	b.bookings[i].AssignedEmployeeID = employeeID
	b.mu.Unlock()

	err := b.gw.AssignEmployee(ctx, bookingID, employeeID)

	b.mu.Lock()
	delete(b.inFlight, bookingID)
	if err != nil {
		if i := b.indexOf(bookingID); i >= 0 {
			b.bookings[i] = prev
		}
		b.mu.Unlock()
		metrics.MutationRolledBack(string(status.Approved))
		b.logger.Error().Err(err).Int64("booking_id", bookingID).Int64("employee_id", employeeID).
			Msg("assignment failed, reverted")
		b.notify(failureFromErr(err, "Failed to assign employee and approve booking"))
		return err
	}
	b.mu.Unlock()

	metrics.MutationCommitted(string(status.Approved))
	b.notify(success("Employee assigned and booking approved successfully"))
	if err := b.Load(ctx); err != nil {
		// Keep the optimistic row; the next poll or manual reload reconciles.
		b.logger.Error().Err(err).Msg("reload after assignment failed")
	}
	return nil
}

// Remove drops a booking from the local list after a backend delete.
func (b *Board) Remove(bookingID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexOf(bookingID); i >= 0 {
		b.bookings = append(b.bookings[:i], b.bookings[i+1:]...)
	}
}

// mutate runs one optimistic status change: flip locally, call the backend,
// revert and report on failure. Exactly one notification is emitted per
// attempt that reaches the backend.
func (b *Board) mutate(ctx context.Context, bookingID int64, target status.Status, okMsg, failMsg string) error {
	b.mu.Lock()
	i := b.indexOf(bookingID)
	if i < 0 {
		b.mu.Unlock()
		return ErrBookingNotFound
	}
	prev := b.bookings[i].Status
	if !status.CanTransition(prev, target) {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s to %s", ErrIllegalTransition, prev, target)
	}
	if b.inFlight[bookingID] {
		b.mu.Unlock()
		return ErrMutationInFlight
	}
	b.inFlight[bookingID] = true
	b.bookings[i].Status = target
	b.mu.Unlock()

	err := b.gw.UpdateBookingStatus(ctx, bookingID, target)

	b.mu.Lock()
	delete(b.inFlight, bookingID)
	if err != nil {
		if i := b.indexOf(bookingID); i >= 0 {
			b.bookings[i].Status = prev
		}
		b.mu.Unlock()
		metrics.MutationRolledBack(string(target))
		b.logger.Error().Err(err).Int64("booking_id", bookingID).
			Str("from", string(prev)).Str("to", string(target)).Msg("status update failed, reverted")
		b.notify(failureFromErr(err, failMsg))
		return err
	}
	b.mu.Unlock()

	metrics.MutationCommitted(string(target))
	b.logger.Info().Int64("booking_id", bookingID).
		Str("from", string(prev)).Str("to", string(target)).Msg("status updated")
	b.notify(success(okMsg))

	if b.policy == RefreshAfterSuccess {
		if err := b.Load(ctx); err != nil {
			b.logger.Error().Err(err).Msg("reload after mutation failed")
		}
	}
	return nil
}

func (b *Board) notify(n Notification) {
	if b.notifier != nil {
		b.notifier.Notify(n)
	}
}

// indexOf must be called with at least a read lock held.
func (b *Board) indexOf(bookingID int64) int {
	for i := range b.bookings {
		if b.bookings[i].ID == bookingID {
			return i
		}
	}
	return -1
}
