package backend

import (
	"context"
	"fmt"
	"strings"

	"washdesk/internal/models"
)

// accountRecord is the identity object the per-role login endpoints return
// alongside their own token.
type accountRecord struct {
	ID        flexID `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"fullname"`
	Email     string `json:"email"`
}

// Account is a verified identity returned by Login.
type Account struct {
	UserID int64
	Role   string
	Name   string
	Email  string
}

// Login verifies credentials against the backend's per-role login endpoint
// (login_admin, login_employee, login_customer). Bad credentials come back
// as a failure remark, which surfaces as a RemarkError.
func (c *Client) Login(ctx context.Context, role, email, password string) (*Account, error) {
	switch role {
	case models.RoleAdmin, models.RoleEmployee, models.RoleCustomer:
	default:
		return nil, fmt.Errorf("unknown login role %q", role)
	}

	body := map[string]string{"email": email, "password": password}
	var payload struct {
		Token    string         `json:"token"`
		Admin    *accountRecord `json:"admin"`
		Employee *accountRecord `json:"employee"`
		Customer *accountRecord `json:"customer"`
	}
	if err := c.post(ctx, "/login_"+role, body, &payload); err != nil {
		return nil, fmt.Errorf("failed to log in %s: %w", role, err)
	}

	rec := payload.Admin
	if rec == nil {
		rec = payload.Employee
	}
	if rec == nil {
		rec = payload.Customer
	}
	if rec == nil || rec.ID == 0 {
		return nil, fmt.Errorf("%w: login response missing account", ErrMalformedPayload)
	}

	name := strings.TrimSpace(rec.FullName)
	if name == "" {
		name = strings.TrimSpace(strings.TrimSpace(rec.FirstName) + " " + strings.TrimSpace(rec.LastName))
	}

	return &Account{
		UserID: int64(rec.ID),
		Role:   role,
		Name:   name,
		Email:  strings.TrimSpace(rec.Email),
	}, nil
}
