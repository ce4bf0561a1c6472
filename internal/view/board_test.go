package view

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"washdesk/internal/backend"
	"washdesk/internal/models"
	"washdesk/internal/status"
)

type fakeGateway struct {
	mu        sync.Mutex
	updateErr error
	assignErr error
	updates   []int64
	assigns   [][2]int64
	employees []models.Employee

	// When set, UpdateBookingStatus blocks until the channel is closed.
	hold chan struct{}
}

func (g *fakeGateway) UpdateBookingStatus(ctx context.Context, bookingID int64, st status.Status) error {
	g.mu.Lock()
	g.updates = append(g.updates, bookingID)
	hold := g.hold
	g.mu.Unlock()
	if hold != nil {
		<-hold
	}
	return g.updateErr
}

func (g *fakeGateway) AssignEmployee(ctx context.Context, bookingID, employeeID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.assigns = append(g.assigns, [2]int64{bookingID, employeeID})
	return g.assignErr
}

func (g *fakeGateway) GetAllEmployees(ctx context.Context) ([]models.Employee, error) {
	return g.employees, nil
}

func (g *fakeGateway) updateCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.updates)
}

func testBookings() []models.Booking {
	return []models.Booking{
		{ID: 1, CustomerName: "Alice", Status: status.Pending, WashDate: "2026-03-02", WashTime: "10:00"},
		{ID: 2, CustomerName: "Bob", Status: status.Approved, WashDate: "2026-03-01", WashTime: "09:00"},
		{ID: 3, CustomerName: "Cara", Status: status.Completed, WashDate: "2026-02-20", WashTime: "14:00"},
	}
}

func newTestBoard(t *testing.T, gw *fakeGateway) (*Board, *NotificationLog) {
	t.Helper()
	log := NewNotificationLog(10)
	logger := zerolog.Nop()
	listed := testBookings()
	fetch := func(ctx context.Context) ([]models.Booking, error) {
		return append([]models.Booking(nil), listed...), nil
	}
	b := NewBoard("test", fetch, gw, log, &logger, RefreshNever)
	require.NoError(t, b.Load(context.Background()))
	return b, log
}

func TestBoardMutate(t *testing.T) {
	t.Run("commit keeps the optimistic status", func(t *testing.T) {
		gw := &fakeGateway{}
		b, log := newTestBoard(t, gw)

		require.NoError(t, b.Reject(context.Background(), 1))

		got, ok := b.Get(1)
		require.True(t, ok)
		assert.Equal(t, status.Rejected, got.Status)

		notes := log.Drain()
		require.Len(t, notes, 1)
		assert.Equal(t, SeveritySuccess, notes[0].Severity)
		assert.Equal(t, "Booking rejected successfully", notes[0].Message)
	})

	t.Run("failure reverts to the previous status", func(t *testing.T) {
		gw := &fakeGateway{updateErr: errors.New("boom")}
		b, log := newTestBoard(t, gw)

		err := b.Reject(context.Background(), 1)
		require.Error(t, err)

		got, _ := b.Get(1)
		assert.Equal(t, status.Pending, got.Status, "optimistic value must be rolled back")

		notes := log.Drain()
		require.Len(t, notes, 1)
		assert.Equal(t, SeverityError, notes[0].Severity)
		assert.Equal(t, "Failed to reject booking", notes[0].Message)
	})

	t.Run("backend rejection message wins over the fallback", func(t *testing.T) {
		gw := &fakeGateway{updateErr: &backend.RemarkError{Remarks: "failed", Message: "Booking already closed"}}
		b, log := newTestBoard(t, gw)

		require.Error(t, b.Reject(context.Background(), 1))

		notes := log.Drain()
		require.Len(t, notes, 1)
		assert.Equal(t, "Booking already closed", notes[0].Message)
	})

	t.Run("complete straight from pending", func(t *testing.T) {
		gw := &fakeGateway{}
		b, log := newTestBoard(t, gw)

		require.NoError(t, b.Complete(context.Background(), 1))

		got, _ := b.Get(1)
		assert.Equal(t, status.Completed, got.Status)
		notes := log.Drain()
		require.Len(t, notes, 1)
		assert.Equal(t, "Booking marked as completed", notes[0].Message)
	})

	t.Run("illegal transition never reaches the backend", func(t *testing.T) {
		gw := &fakeGateway{}
		b, log := newTestBoard(t, gw)

		err := b.Reject(context.Background(), 3) // Completed is terminal
		require.ErrorIs(t, err, ErrIllegalTransition)
		assert.Zero(t, gw.updateCount())
		assert.Empty(t, log.Drain())
	})

	t.Run("unknown booking id", func(t *testing.T) {
		gw := &fakeGateway{}
		b, _ := newTestBoard(t, gw)
		require.ErrorIs(t, b.Reject(context.Background(), 99), ErrBookingNotFound)
	})

	t.Run("second mutation on the same booking is refused", func(t *testing.T) {
		gw := &fakeGateway{hold: make(chan struct{})}
		b, _ := newTestBoard(t, gw)

		first := make(chan error, 1)
		go func() { first <- b.Reject(context.Background(), 1) }()

		// Wait until the first call is parked inside the gateway.
		require.Eventually(t, func() bool { return gw.updateCount() == 1 }, time.Second, time.Millisecond)

		err := b.Complete(context.Background(), 1)
		require.ErrorIs(t, err, ErrMutationInFlight)

		close(gw.hold)
		require.NoError(t, <-first)
		assert.Equal(t, 1, gw.updateCount())
	})
}

func TestBoardApprove(t *testing.T) {
	t.Run("requires an employee selection", func(t *testing.T) {
		gw := &fakeGateway{}
		b, log := newTestBoard(t, gw)

		err := b.Approve(context.Background(), 1, 0)
		require.ErrorIs(t, err, ErrNoEmployeeSelected)
		assert.Empty(t, gw.assigns)
		assert.Empty(t, log.Drain())
	})

	t.Run("success approves, notifies once and reloads", func(t *testing.T) {
		gw := &fakeGateway{}
		log := NewNotificationLog(10)
		logger := zerolog.Nop()

		loads := 0
		fetch := func(ctx context.Context) ([]models.Booking, error) {
			loads++
			out := testBookings()
			if loads > 1 {
				out[0].Status = status.Approved
				out[0].AssignedEmployeeID = 7
				out[0].AssignedEmployeeName = "Dan Lee"
			}
			return out, nil
		}
		b := NewBoard("test", fetch, gw, log, &logger, RefreshNever)
		require.NoError(t, b.Load(context.Background()))

		require.NoError(t, b.Approve(context.Background(), 1, 7))

		require.Equal(t, [][2]int64{{1, 7}}, gw.assigns)
		assert.Equal(t, 2, loads, "successful assignment reloads the list")

		got, _ := b.Get(1)
		assert.Equal(t, status.Approved, got.Status)
		assert.Equal(t, "Dan Lee", got.AssignedEmployeeName)

		notes := log.Drain()
		require.Len(t, notes, 1)
		assert.Equal(t, "Employee assigned and booking approved successfully", notes[0].Message)
	})

	t.Run("failure reverts status and assignment", func(t *testing.T) {
		gw := &fakeGateway{assignErr: errors.New("boom")}
		b, log := newTestBoard(t, gw)

		require.Error(t, b.Approve(context.Background(), 1, 7))

		got, _ := b.Get(1)
		assert.Equal(t, status.Pending, got.Status)
		assert.Zero(t, got.AssignedEmployeeID)

		notes := log.Drain()
		require.Len(t, notes, 1)
		assert.Equal(t, "Failed to assign employee and approve booking", notes[0].Message)
	})

	t.Run("already approved booking is left alone", func(t *testing.T) {
		gw := &fakeGateway{}
		b, _ := newTestBoard(t, gw)

		// Approved -> Approved is a no-op transition, so re-assignment of the
		// same booking is permitted; a terminal one is not.
		require.NoError(t, b.Approve(context.Background(), 2, 7))
		require.ErrorIs(t, b.Approve(context.Background(), 3, 7), ErrIllegalTransition)
	})
}

func TestBoardCancel(t *testing.T) {
	t.Run("pending booking can be cancelled", func(t *testing.T) {
		gw := &fakeGateway{}
		b, log := newTestBoard(t, gw)

		require.NoError(t, b.Cancel(context.Background(), 1))
		got, _ := b.Get(1)
		assert.Equal(t, status.Cancelled, got.Status)

		notes := log.Drain()
		require.Len(t, notes, 1)
		assert.Equal(t, "Booking cancelled successfully!", notes[0].Message)
	})

	t.Run("approved booking is past the cancellation window", func(t *testing.T) {
		gw := &fakeGateway{}
		b, _ := newTestBoard(t, gw)

		err := b.Cancel(context.Background(), 2)
		require.ErrorIs(t, err, ErrCancellationClosed)
		assert.Zero(t, gw.updateCount())
	})
}

func TestBoardRemove(t *testing.T) {
	gw := &fakeGateway{}
	b, _ := newTestBoard(t, gw)

	b.Remove(2)
	_, ok := b.Get(2)
	assert.False(t, ok)
	assert.Len(t, b.Snapshot(), 2)
}

func TestHistory(t *testing.T) {
	gw := &fakeGateway{}
	log := NewNotificationLog(10)
	logger := zerolog.Nop()

	loads := 0
	fetch := func(ctx context.Context, customerID int64) ([]models.Booking, error) {
		loads++
		require.EqualValues(t, 42, customerID)
		return testBookings(), nil
	}
	h := NewHistory(42, fetch, gw, log, &logger)
	require.NoError(t, h.Load(context.Background()))

	t.Run("newest booking first", func(t *testing.T) {
		got := h.Snapshot()
		require.Len(t, got, 3)
		assert.EqualValues(t, 1, got[0].ID)
		assert.EqualValues(t, 2, got[1].ID)
		assert.EqualValues(t, 3, got[2].ID)
	})

	t.Run("cancel window follows the displayed status", func(t *testing.T) {
		assert.True(t, h.CanCancel(1))
		assert.False(t, h.CanCancel(2))
		assert.False(t, h.CanCancel(99))
	})

	t.Run("successful cancel reloads the list", func(t *testing.T) {
		before := loads
		require.NoError(t, h.Cancel(context.Background(), 1))
		assert.Equal(t, before+1, loads)

		notes := log.Drain()
		require.Len(t, notes, 1)
		assert.Equal(t, SeveritySuccess, notes[0].Severity)
	})
}
