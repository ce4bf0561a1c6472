package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Run("CanonicalInputs", func(t *testing.T) {
		assert.Equal(t, "pending", Normalize("Pending"))
		assert.Equal(t, "approved", Normalize("Approved"))
		assert.Equal(t, "rejected", Normalize("Rejected"))
		assert.Equal(t, "completed", Normalize("Completed"))
		assert.Equal(t, "cancelled", Normalize("Cancelled"))
	})

	t.Run("ConfirmedCollapsesIntoApproved", func(t *testing.T) {
		assert.Equal(t, Normalize(string(Approved)), Normalize("confirmed"))
		assert.Equal(t, "approved", Normalize("CONFIRMED"))
	})

	t.Run("AlternateSpellings", func(t *testing.T) {
		assert.Equal(t, "cancelled", Normalize("canceled"))
		assert.Equal(t, "completed", Normalize("complete"))
	})

	t.Run("Idempotent", func(t *testing.T) {
		for _, s := range []string{"Pending", "Approved", "Rejected", "Completed", "Cancelled", "confirmed", "weird-status"} {
			assert.Equal(t, Normalize(s), Normalize(Normalize(s)), "status %q", s)
		}
	})

	t.Run("UnknownPassesThroughLowercased", func(t *testing.T) {
		assert.Equal(t, "rescheduled", Normalize("  Rescheduled "))
		assert.Equal(t, "", Normalize(""))
	})
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "pending", Display(""))
	assert.Equal(t, "pending", Display("   "))
	assert.Equal(t, "approved", Display("confirmed"))
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, Approved, Canonical("confirmed"))
	assert.Equal(t, Approved, Canonical("approved"))
	assert.Equal(t, Cancelled, Canonical("canceled"))
	assert.Equal(t, Completed, Canonical("Complete"))
	assert.Equal(t, Rejected, Canonical("rejected"))
	assert.Equal(t, Pending, Canonical(""))

	t.Run("UnknownStatusSurvives", func(t *testing.T) {
		assert.Equal(t, Status("In progress"), Canonical("In Progress"))
		assert.Equal(t, Status("Rescheduled"), Canonical("rescheduled"))
		// A drifted status never becomes cancellable or mutable.
		assert.False(t, CanCancel(string(Canonical("In Progress"))))
		assert.False(t, CanTransition(Canonical("In Progress"), Approved))
		assert.True(t, IsTerminal(Canonical("In Progress")))
	})
}

func TestKnown(t *testing.T) {
	assert.True(t, Known("Pending"))
	assert.True(t, Known("confirmed"))
	assert.False(t, Known("rescheduled"))
	assert.False(t, Known(""))
}

func TestCanTransition(t *testing.T) {
	legal := []struct{ from, to Status }{
		{Pending, Approved},
		{Pending, Rejected},
		{Pending, Cancelled},
		{Pending, Completed},
		{Approved, Completed},
	}
	for _, tc := range legal {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}

	illegal := []struct{ from, to Status }{
		{Approved, Pending},
		{Approved, Rejected},
		{Rejected, Approved},
		{Completed, Pending},
		{Cancelled, Approved},
		{Completed, Cancelled},
	}
	for _, tc := range illegal {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}

	t.Run("SameStatusIsNoOp", func(t *testing.T) {
		for _, s := range []Status{Pending, Approved, Rejected, Completed, Cancelled} {
			assert.True(t, CanTransition(s, s))
		}
	})
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(Pending))
	assert.False(t, IsTerminal(Approved))
	assert.True(t, IsTerminal(Rejected))
	assert.True(t, IsTerminal(Completed))
	assert.True(t, IsTerminal(Cancelled))
}

func TestCanCancel(t *testing.T) {
	assert.True(t, CanCancel("pending"))
	assert.True(t, CanCancel("Pending"))
	assert.False(t, CanCancel("Approved"))
	assert.False(t, CanCancel("confirmed"))
	assert.False(t, CanCancel("Completed"))
	assert.False(t, CanCancel("Cancelled"))
	assert.False(t, CanCancel("Rejected"))
	assert.False(t, CanCancel("rescheduled"))
}
