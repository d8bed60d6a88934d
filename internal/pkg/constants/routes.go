package constants

// Static route constants
const (
	PublicRoute   = "/"
	LoginRoute    = "/login"
	RegisterRoute = "/register"
	ActivateRoute = "/activate"
	PlansRoute    = "/plans"
	BillingRoute  = "/billing"
	// Scan path prefix for printed QR labels
	ScanRoutePrefix = "/b/"
)
