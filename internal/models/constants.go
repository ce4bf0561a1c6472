package models

const (
	// Placeholders used when a backend record omits an optional display field.
	PlaceholderUnknown = "Unknown"
	PlaceholderNA      = "N/A"

	// DefaultSessionTTL время жизни сессии in the store.
	DefaultSessionTTL = 24 * 60 * 60 // 24 hours in seconds

	// DefaultDashboardRefresh interval between dashboard summary polls.
	DefaultDashboardRefreshMinutes = 5

	// DefaultBackendTimeout per-call timeout against the car-wash backend.
	DefaultBackendTimeoutSeconds = 15

	// LoginRateLimit attempts per window per remote address.
	LoginRateLimitAttempts = 10
	LoginRateLimitWindow   = 60 // 1 minute in seconds

	// ExportQueueSize размер очереди exporter воркера.
	ExportQueueSize = 128
)

// Roles stored in a session.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
	RoleCustomer = "customer"
)
