package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderContentType     = "Content-Type"
	HeaderXRequestID      = "X-Request-ID"
	HeaderStripeSignature = "Stripe-Signature"

	// Context keys
	ContextKeyRequestID = "request_id"

	// Webhook providers
	ProviderStripe = "stripe"

	// Database table names
	TableClients       = "clients"
	TablePendingLinks  = "pending_user_links"
	TableProfessionals = "professionals"
	TableServices      = "services"
	TableBookings      = "bookings"
	TablePayments      = "payments"
	TableSubscriptions = "subscriptions"
	TableWebhookEvents = "webhook_events"

	// Error messages
	ErrMsgInternalServerError = "Internal server error occurred"
	ErrMsgResourceNotFound    = "Resource not found"
	ErrMsgValidationFailed    = "Validation failed"
	ErrMsgConflict            = "Resource already exists"
)
