package status

import (
	"strings"
	"unicode"
)

// Status is the canonical, backend-facing booking status vocabulary.
type Status string

const (
	Pending   Status = "Pending"
	Approved  Status = "Approved"
	Rejected  Status = "Rejected"
	Completed Status = "Completed"
	Cancelled Status = "Cancelled"
)

// Lowercase UI vocabulary used for filtering and display.
const (
	UIPending   = "pending"
	UIApproved  = "approved"
	UIRejected  = "rejected"
	UICompleted = "completed"
	UICancelled = "cancelled"
)

// Normalize maps any supported spelling, casing or enum value to the lowercase
// UI form. The backend's "confirmed" collapses into "approved". Unrecognized
// input is lowercased and passed through unchanged; drift on the backend side
// must never break a list view.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "confirmed", "approved":
		return UIApproved
	case "cancelled", "canceled":
		return UICancelled
	case "completed", "complete":
		return UICompleted
	case "pending":
		return UIPending
	case "rejected":
		return UIRejected
	}
	return s
}

// Display is Normalize with the list views' empty-status fallback.
func Display(raw string) string {
	s := Normalize(raw)
	if s == "" {
		return UIPending
	}
	return s
}

// Canonical maps any supported spelling to the capitalized form the backend
// expects in update_booking_status. Unrecognized statuses keep their
// normalized form, capitalized, so backend drift stays visible in lists
// instead of collapsing into Pending and reopening its transitions.
func Canonical(raw string) Status {
	n := Normalize(raw)
	switch n {
	case UIApproved:
		return Approved
	case UIRejected:
		return Rejected
	case UICompleted:
		return Completed
	case UICancelled:
		return Cancelled
	case UIPending, "":
		return Pending
	}

	r := []rune(n)
	r[0] = unicode.ToUpper(r[0])
	return Status(r)
}

// Known reports whether raw normalizes into the canonical vocabulary.
func Known(raw string) bool {
	switch Normalize(raw) {
	case UIPending, UIApproved, UIRejected, UICompleted, UICancelled:
		return true
	}
	return false
}

var transitions = map[Status][]Status{
	// Pending→Completed covers walk-ins finished without an explicit approve,
	// which the employee list does in one action.
	Pending:  {Approved, Rejected, Cancelled, Completed},
	Approved: {Completed},
}

// CanTransition reports whether from→to is a legal lifecycle transition.
// Setting a booking to its current status is a no-op and always allowed.
// Rejected, Completed and Cancelled are terminal.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions leave s.
func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}

// CanCancel reports whether a customer may still cancel a booking with the
// given raw status. Cancellation is only offered while the booking is pending.
func CanCancel(raw string) bool {
	return Normalize(raw) == UIPending
}
