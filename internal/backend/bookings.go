package backend

import (
	"context"
	"fmt"

	"washdesk/internal/models"
	"washdesk/internal/status"
)

type bookingsPayload struct {
	Bookings []bookingRecord `json:"bookings"`
}

func (c *Client) parseBookings(records []bookingRecord) ([]models.Booking, error) {
	bookings := make([]models.Booking, 0, len(records))
	for _, rec := range records {
		b, defaulted, err := parseBooking(rec)
		if err != nil {
			return nil, err
		}
		if len(defaulted) > 0 {
			c.logger.Warn().
				Int64("booking_id", b.ID).
				Strs("fields", defaulted).
				Msg("booking record missing fields, placeholders applied")
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

// GetAllBookings returns every booking known to the backend (admin view).
func (c *Client) GetAllBookings(ctx context.Context) ([]models.Booking, error) {
	var payload bookingsPayload
	if err := c.get(ctx, "/get_all_bookings", &payload); err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}
	return c.parseBookings(payload.Bookings)
}

// GetBookingsByCustomer returns the customer's own bookings.
func (c *Client) GetBookingsByCustomer(ctx context.Context, customerID int64) ([]models.Booking, error) {
	var payload bookingsPayload
	path := fmt.Sprintf("/get_bookings_by_customer?customer_id=%d", customerID)
	if err := c.get(ctx, path, &payload); err != nil {
		return nil, fmt.Errorf("failed to load customer bookings: %w", err)
	}
	return c.parseBookings(payload.Bookings)
}

// GetBookingsByEmployee returns bookings assigned to one employee.
func (c *Client) GetBookingsByEmployee(ctx context.Context, employeeID int64) ([]models.Booking, error) {
	var payload bookingsPayload
	path := fmt.Sprintf("/get_bookings_by_employee?employee_id=%d", employeeID)
	if err := c.get(ctx, path, &payload); err != nil {
		return nil, fmt.Errorf("failed to load employee bookings: %w", err)
	}
	return c.parseBookings(payload.Bookings)
}

// UpdateBookingStatus issues the canonical capitalized status to the backend.
func (c *Client) UpdateBookingStatus(ctx context.Context, bookingID int64, st status.Status) error {
	body := map[string]any{
		"id":     bookingID,
		"status": status.Canonical(string(st)),
	}
	if err := c.put(ctx, "/update_booking_status", body, nil); err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	return nil
}

// AssignEmployee attaches an employee to a booking. The backend conflates the
// assignment and the Pending→Approved flip into this one call.
func (c *Client) AssignEmployee(ctx context.Context, bookingID, employeeID int64) error {
	body := map[string]any{
		"booking_id":  bookingID,
		"employee_id": employeeID,
	}
	if err := c.put(ctx, "/assign_employee_to_booking", body, nil); err != nil {
		return fmt.Errorf("failed to assign employee to booking: %w", err)
	}
	return nil
}

// CreateBooking submits a customer booking request; the backend sets the
// identifier and the initial Pending status.
func (c *Client) CreateBooking(ctx context.Context, b *models.Booking) (int64, error) {
	body := map[string]any{
		"customer_id":         b.CustomerID,
		"vehicleType":         b.VehicleType,
		"serviceName":         b.ServiceName,
		"price":               b.Price,
		"washDate":            b.WashDate,
		"washTime":            b.WashTime,
		"paymentType":         b.PaymentType,
		"onlinePaymentOption": b.OnlineOption,
		"notes":               b.Notes,
	}

	var payload struct {
		ID flexID `json:"id"`
	}
	if err := c.post(ctx, "/create_booking", body, &payload); err != nil {
		return 0, fmt.Errorf("failed to create booking: %w", err)
	}
	return int64(payload.ID), nil
}

// DeleteBooking permanently removes a booking. Reserved for administrators;
// cancellation is a status change, not a delete.
func (c *Client) DeleteBooking(ctx context.Context, bookingID int64) error {
	if err := c.delete(ctx, fmt.Sprintf("/bookings/%d", bookingID)); err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	return nil
}
