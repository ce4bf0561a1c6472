package view

import "errors"

var (
	// ErrBookingNotFound means the booking id is not in the loaded list.
	ErrBookingNotFound = errors.New("booking not found in view")

	// ErrMutationInFlight rejects a second mutation on a booking while one is
	// outstanding. Without it a double-click races and the last response to
	// arrive silently wins.
	ErrMutationInFlight = errors.New("booking mutation already in flight")

	// ErrIllegalTransition rejects a lifecycle move the status model forbids.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrNoEmployeeSelected blocks the assignment flow before any network
	// call when no employee id was chosen.
	ErrNoEmployeeSelected = errors.New("employee selection is required")

	// ErrCancellationClosed blocks customer cancellation once the booking has
	// left Pending.
	ErrCancellationClosed = errors.New("booking can no longer be cancelled")
)
