package models

import (
	"time"

	"washdesk/internal/status"
)

type Booking struct {
	ID           int64         `json:"id"`
	CustomerID   int64         `json:"customer_id"`
	CustomerName string        `json:"customer_name"`
	Nickname     string        `json:"nickname"`
	VehicleType  string        `json:"vehicle_type"`
	ServiceName  string        `json:"service_name"`
	Price        float64       `json:"price"`
	Duration     int           `json:"service_duration"`
	WashDate     string        `json:"wash_date"`
	WashTime     string        `json:"wash_time"`
	PaymentType  string        `json:"payment_type"`
	OnlineOption string        `json:"online_payment_option,omitempty"`
	Notes        string        `json:"notes,omitempty"`
	Status       status.Status `json:"status"`

	AssignedEmployeeID   int64  `json:"assigned_employee_id,omitempty"`
	AssignedEmployeeName string `json:"assigned_employee_name,omitempty"`
	EmployeePosition     string `json:"employee_position,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// DisplayName resolves the customer label the way the booking lists render it:
// full name first, nickname second, generic fallback last.
func (b *Booking) DisplayName() string {
	if b.CustomerName != "" {
		return b.CustomerName
	}
	if b.Nickname != "" {
		return b.Nickname
	}
	return "Customer"
}

// HasEmployeeAssigned reports whether an employee has been attached to the booking.
func (b *Booking) HasEmployeeAssigned() bool {
	return b.AssignedEmployeeID != 0 && b.AssignedEmployeeName != ""
}

// EmployeeInfo renders the assigned employee line for detail views.
func (b *Booking) EmployeeInfo() string {
	if !b.HasEmployeeAssigned() {
		return "Pending Assignment"
	}
	if b.EmployeePosition != "" {
		return b.AssignedEmployeeName + " (" + b.EmployeePosition + ")"
	}
	return b.AssignedEmployeeName
}

// ScheduledAt combines wash date and time for sorting. Bookings with an
// unparseable date sort to the zero time.
func (b *Booking) ScheduledAt() time.Time {
	washTime := b.WashTime
	if washTime == "" {
		washTime = "00:00"
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, b.WashDate+" "+washTime); err == nil {
			return t
		}
	}
	if t, err := time.Parse("2006-01-02", b.WashDate); err == nil {
		return t
	}
	return time.Time{}
}
