package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"washdesk/internal/models"
	"washdesk/internal/status"
)

// flexID accepts the backend's loosely-typed identifiers, which arrive as
// numbers or numeric strings depending on the endpoint.
type flexID int64

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("non-numeric id %q", s)
		}
		*f = flexID(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n)
	return nil
}

// flexFloat accepts numbers or numeric strings ("24.99").
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("non-numeric value %q", s)
		}
		*f = flexFloat(n)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexFloat(n)
	return nil
}

// bookingRecord mirrors the raw get_all_bookings row shape.
type bookingRecord struct {
	ID           flexID    `json:"id"`
	CustomerID   flexID    `json:"customer_id"`
	CustomerName string    `json:"customerName"`
	Nickname     string    `json:"nickname"`
	VehicleType  string    `json:"vehicleType"`
	ServiceName  string    `json:"serviceName"`
	Price        flexFloat `json:"price"`
	Duration     flexID    `json:"serviceDuration"`
	WashDate     string    `json:"washDate"`
	WashTime     string    `json:"washTime"`
	PaymentType  string    `json:"paymentType"`
	OnlineOption string    `json:"onlinePaymentOption"`
	Notes        string    `json:"notes"`
	Status       string    `json:"status"`
	DateCreated  string    `json:"dateCreated"`

	AssignedEmployeeID flexID `json:"assigned_employee_id"`
	EmployeeFirstName  string `json:"employee_first_name"`
	EmployeeLastName   string `json:"employee_last_name"`
	EmployeePosition   string `json:"employee_position"`
}

// parseBooking validates a raw record into a typed Booking. Identity and
// status are mandatory; their absence is a malformed payload, not a default.
// Optional display fields still fall back to the historical placeholders, but
// every defaulted field is reported so drift stays observable.
func parseBooking(rec bookingRecord) (models.Booking, []string, error) {
	if rec.ID == 0 {
		return models.Booking{}, nil, fmt.Errorf("%w: booking record missing id", ErrMalformedPayload)
	}
	if strings.TrimSpace(rec.Status) == "" {
		return models.Booking{}, nil, fmt.Errorf("%w: booking %d missing status", ErrMalformedPayload, rec.ID)
	}

	var defaulted []string

	b := models.Booking{
		ID:           int64(rec.ID),
		CustomerID:   int64(rec.CustomerID),
		CustomerName: strings.TrimSpace(rec.CustomerName),
		Nickname:     strings.TrimSpace(rec.Nickname),
		VehicleType:  strings.TrimSpace(rec.VehicleType),
		ServiceName:  strings.TrimSpace(rec.ServiceName),
		Price:        float64(rec.Price),
		Duration:     int(rec.Duration),
		WashDate:     strings.TrimSpace(rec.WashDate),
		WashTime:     strings.TrimSpace(rec.WashTime),
		PaymentType:  strings.TrimSpace(rec.PaymentType),
		OnlineOption: strings.TrimSpace(rec.OnlineOption),
		Notes:        rec.Notes,
		Status:       status.Canonical(rec.Status),

		AssignedEmployeeID: int64(rec.AssignedEmployeeID),
		EmployeePosition:   strings.TrimSpace(rec.EmployeePosition),
	}

	if name := strings.TrimSpace(rec.EmployeeFirstName + " " + rec.EmployeeLastName); name != "" {
		b.AssignedEmployeeName = name
	}

	if b.VehicleType == "" {
		b.VehicleType = models.PlaceholderUnknown
		defaulted = append(defaulted, "vehicleType")
	}
	if b.ServiceName == "" {
		b.ServiceName = "Standard Wash"
		defaulted = append(defaulted, "serviceName")
	}
	if b.PaymentType == "" {
		b.PaymentType = models.PlaceholderNA
		defaulted = append(defaulted, "paymentType")
	}
	if rec.Price == 0 {
		defaulted = append(defaulted, "price")
	}

	if rec.DateCreated != "" {
		if t, err := time.Parse(time.RFC3339, rec.DateCreated); err == nil {
			b.CreatedAt = t
		}
	}

	return b, defaulted, nil
}

// employeeRecord mirrors the raw get_all_employees row shape.
type employeeRecord struct {
	ID        flexID `json:"id"`
	BadgeID   string `json:"employee_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Position  string `json:"position"`
	CreatedAt string `json:"created_at"`
}

func parseEmployee(rec employeeRecord) (models.Employee, error) {
	if rec.ID == 0 {
		return models.Employee{}, fmt.Errorf("%w: employee record missing id", ErrMalformedPayload)
	}

	e := models.Employee{
		ID:        int64(rec.ID),
		BadgeID:   strings.TrimSpace(rec.BadgeID),
		FirstName: strings.TrimSpace(rec.FirstName),
		LastName:  strings.TrimSpace(rec.LastName),
		Email:     strings.TrimSpace(rec.Email),
		Position:  strings.TrimSpace(rec.Position),
		Active:    true,
	}

	e.Phone = strings.TrimSpace(rec.Phone)
	if e.Phone == "" {
		e.Phone = models.PlaceholderNA
	}
	if e.Position == "" {
		e.Position = "Employee"
	}
	if rec.CreatedAt != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, rec.CreatedAt); err == nil {
				e.CreatedAt = t
				break
			}
		}
	}

	return e, nil
}
