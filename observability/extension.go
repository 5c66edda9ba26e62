// Package observability provides a metrics extension that records invoicing
// lifecycle event counts and invoice amounts.
//
// The Counter, Histogram, and MetricFactory interfaces are defined locally
// so the package works with any metrics backend; forge applications pass
// app.Metrics().
package observability

import (
	"context"

	"github.com/xraph/invoicing/invoice"
	"github.com/xraph/invoicing/plugin"
	"github.com/xraph/invoicing/transaction"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceCreated       = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceUpdated       = (*MetricsExtension)(nil)
	_ plugin.OnInvoicePaid          = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceMarkedPending = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceDeleted       = (*MetricsExtension)(nil)
	_ plugin.OnTransactionRecorded  = (*MetricsExtension)(nil)
	_ plugin.OnPluginError          = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as an engine plugin to automatically track invoicing metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Invoice metrics
	InvoiceCreated       Counter
	InvoiceUpdated       Counter
	InvoicePaid          Counter
	InvoiceMarkedPending Counter
	InvoiceDeleted       Counter
	InvoiceTotal         Histogram

	// Ledger metrics
	TransactionsRecorded Counter
	SaleAmount           Histogram
	PaymentAmount        Histogram

	// Error metrics
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Invoice metrics
		InvoiceCreated:       factory.Counter("invoicing.invoice.created"),
		InvoiceUpdated:       factory.Counter("invoicing.invoice.updated"),
		InvoicePaid:          factory.Counter("invoicing.invoice.paid"),
		InvoiceMarkedPending: factory.Counter("invoicing.invoice.marked_pending"),
		InvoiceDeleted:       factory.Counter("invoicing.invoice.deleted"),
		InvoiceTotal:         factory.Histogram("invoicing.invoice.total_amount"),

		// Ledger metrics
		TransactionsRecorded: factory.Counter("invoicing.transaction.recorded"),
		SaleAmount:           factory.Histogram("invoicing.transaction.sale_amount"),
		PaymentAmount:        factory.Histogram("invoicing.transaction.payment_amount"),

		// Error metrics
		PluginErrors: factory.Counter("invoicing.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceCreated implements plugin.OnInvoiceCreated.
func (m *MetricsExtension) OnInvoiceCreated(_ context.Context, inv interface{}) error {
	m.InvoiceCreated.Inc()
	if v, ok := inv.(*invoice.Invoice); ok {
		m.InvoiceTotal.Observe(amountUnits(v.Total.Amount))
	}
	return nil
}

// OnInvoiceUpdated implements plugin.OnInvoiceUpdated.
func (m *MetricsExtension) OnInvoiceUpdated(_ context.Context, _ interface{}) error {
	m.InvoiceUpdated.Inc()
	return nil
}

// OnInvoicePaid implements plugin.OnInvoicePaid.
func (m *MetricsExtension) OnInvoicePaid(_ context.Context, _ interface{}) error {
	m.InvoicePaid.Inc()
	return nil
}

// OnInvoiceMarkedPending implements plugin.OnInvoiceMarkedPending.
func (m *MetricsExtension) OnInvoiceMarkedPending(_ context.Context, _ interface{}) error {
	m.InvoiceMarkedPending.Inc()
	return nil
}

// OnInvoiceDeleted implements plugin.OnInvoiceDeleted.
func (m *MetricsExtension) OnInvoiceDeleted(_ context.Context, _ string) error {
	m.InvoiceDeleted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnTransactionRecorded implements plugin.OnTransactionRecorded.
func (m *MetricsExtension) OnTransactionRecorded(_ context.Context, txn interface{}) error {
	m.TransactionsRecorded.Inc()

	t, ok := txn.(*transaction.Transaction)
	if !ok {
		return nil
	}
	switch t.Type {
	case transaction.TypeSale:
		m.SaleAmount.Observe(amountUnits(t.Amount.Amount))
	case transaction.TypePayment:
		m.PaymentAmount.Observe(amountUnits(t.Amount.Amount))
	}
	return nil
}

// ──────────────────────────────────────────────────
// Failure observation
// ──────────────────────────────────────────────────

// OnPluginError implements plugin.OnPluginError.
func (m *MetricsExtension) OnPluginError(_ context.Context, _, _ string) error {
	m.PluginErrors.Inc()
	return nil
}

// amountUnits converts minor units to major currency units for histogram
// buckets sized in whole amounts.
func amountUnits(cents int64) float64 {
	return float64(cents) / 100
}
