package models

import "time"

// DashboardSummary is the admin/employee dashboard snapshot fetched from the
// backend on a timer. Server-side derived fields (revenue totals) are never
// computed locally.
type DashboardSummary struct {
	TotalCustomers    int64   `json:"total_customers"`
	TotalBookings     int64   `json:"total_bookings"`
	TotalEmployees    int64   `json:"total_employees"`
	TotalRevenue      float64 `json:"total_revenue"`
	CompletedBookings int64   `json:"completed_bookings"`
	PendingBookings   int64   `json:"pending_bookings"`

	RevenueByMonth      []MonthRevenue `json:"revenue_by_month,omitempty"`
	ServiceDistribution []ServiceCount `json:"service_distribution,omitempty"`
	RecentBookings      []Booking      `json:"recent_bookings,omitempty"`

	FetchedAt time.Time `json:"fetched_at"`
}

type MonthRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

type ServiceCount struct {
	Service    string  `json:"service"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}
