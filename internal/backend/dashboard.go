package backend

import (
	"context"
	"fmt"
	"time"

	"washdesk/internal/models"
)

// GetDashboardSummary fetches the stats snapshot behind the admin and
// employee dashboards. Revenue totals are server-side derived fields.
func (c *Client) GetDashboardSummary(ctx context.Context) (*models.DashboardSummary, error) {
	var payload models.DashboardSummary
	if err := c.get(ctx, "/get_dashboard_summary", &payload); err != nil {
		return nil, fmt.Errorf("failed to load dashboard summary: %w", err)
	}
	payload.FetchedAt = time.Now()
	return &payload, nil
}
