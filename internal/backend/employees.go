package backend

import (
	"context"
	"fmt"

	"washdesk/internal/models"
)

// GetAllEmployees returns the assignable roster.
func (c *Client) GetAllEmployees(ctx context.Context) ([]models.Employee, error) {
	var payload struct {
		Employees []employeeRecord `json:"employees"`
	}
	if err := c.get(ctx, "/get_all_employees", &payload); err != nil {
		return nil, fmt.Errorf("failed to load employees: %w", err)
	}

	employees := make([]models.Employee, 0, len(payload.Employees))
	for _, rec := range payload.Employees {
		e, err := parseEmployee(rec)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, nil
}
