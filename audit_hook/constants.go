package audithook

// Action constants for audit events.
const (
	// Invoice actions
	ActionInvoiceCreated       = "invoice.created"
	ActionInvoiceUpdated       = "invoice.updated"
	ActionInvoicePaid          = "invoice.paid"
	ActionInvoiceMarkedPending = "invoice.marked_pending"
	ActionInvoiceDeleted       = "invoice.deleted"

	// Ledger actions
	ActionTransactionRecorded = "transaction.recorded"
)

// Resource constants for audit events.
const (
	ResourceInvoice     = "invoice"
	ResourceTransaction = "transaction"
)

// Category constants for audit events.
const (
	CategoryBilling = "billing"
	CategoryPayment = "payment"
	CategoryLedger  = "ledger"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
