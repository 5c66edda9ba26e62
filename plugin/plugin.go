// Package plugin provides an extensible plugin system for the invoicing
// engine. Plugins can hook into lifecycle events to extend functionality.
package plugin

import "context"

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceCreated is called when a new invoice is created.
type OnInvoiceCreated interface {
	Plugin
	OnInvoiceCreated(ctx context.Context, inv interface{}) error
}

// OnInvoiceUpdated is called when an invoice's fields or line items change.
type OnInvoiceUpdated interface {
	Plugin
	OnInvoiceUpdated(ctx context.Context, inv interface{}) error
}

// OnInvoicePaid is called when an invoice is marked paid.
type OnInvoicePaid interface {
	Plugin
	OnInvoicePaid(ctx context.Context, inv interface{}) error
}

// OnInvoiceMarkedPending is called when an invoice is reset to pending.
type OnInvoiceMarkedPending interface {
	Plugin
	OnInvoiceMarkedPending(ctx context.Context, inv interface{}) error
}

// OnInvoiceDeleted is called when an invoice is deleted.
type OnInvoiceDeleted interface {
	Plugin
	OnInvoiceDeleted(ctx context.Context, invoiceID string) error
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnTransactionRecorded is called when a ledger transaction is appended,
// whether as a side effect of an invoice operation or directly.
type OnTransactionRecorded interface {
	Plugin
	OnTransactionRecorded(ctx context.Context, txn interface{}) error
}

// ──────────────────────────────────────────────────
// Failure observation
// ──────────────────────────────────────────────────

// OnPluginError is called when another plugin's hook fails, so observers
// can count or report failures. The failing plugin itself is skipped and
// errors returned from this hook are only logged, never redispatched.
type OnPluginError interface {
	Plugin
	OnPluginError(ctx context.Context, pluginName, hook string) error
}
