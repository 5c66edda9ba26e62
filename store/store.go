// Package store defines the unified storage interface consumed by the
// invoicing engine. Drivers live in the subpackages: memory, sqlstore
// (sqlite/postgres via gorm), and mongo.
package store

import (
	"context"

	"github.com/xraph/invoicing/id"
	"github.com/xraph/invoicing/invoice"
	"github.com/xraph/invoicing/transaction"
)

// Store is the unified storage interface for all invoicing entities.
// Methods are declared explicitly rather than by embedding the per-entity
// interfaces to avoid naming conflicts.
//
// Multi-step operations (CreateInvoice with a sale transaction,
// SetInvoiceStatus with a payment transaction, DeleteInvoice with its
// cascade) are single interface calls so every driver can make them
// all-or-nothing.
type Store interface {
	// Invoice methods. Line items are written and removed as part of
	// their invoice.
	//
	// CreateInvoice persists the invoice and, when sale is non-nil, the
	// sale transaction recorded for the creation; it fails with
	// ErrDuplicateReference when the reference number is taken and
	// persists nothing.
	CreateInvoice(ctx context.Context, inv *invoice.Invoice, sale *transaction.Transaction) error
	GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error)
	GetInvoiceByReference(ctx context.Context, reference string) (*invoice.Invoice, error)
	ListInvoices(ctx context.Context, ownerID string, opts invoice.ListOpts) ([]*invoice.Invoice, error)

	// UpdateInvoice writes inv conditional on the stored version matching
	// inv.Version, then bumps the version. A lost race fails with
	// ErrVersionConflict.
	UpdateInvoice(ctx context.Context, inv *invoice.Invoice) error

	// SetInvoiceStatus changes an invoice's status conditional on
	// expectedVersion and appends txn (when non-nil) in the same unit of
	// work, so a payment transaction can never be double-recorded.
	SetInvoiceStatus(ctx context.Context, invID id.InvoiceID, expectedVersion int64, status invoice.Status, txn *transaction.Transaction) error

	// DeleteInvoice removes the invoice, its line items, and all
	// transactions referencing it.
	DeleteInvoice(ctx context.Context, invID id.InvoiceID) error

	// Transaction methods. The ledger is append-only.
	CreateTransaction(ctx context.Context, txn *transaction.Transaction) error
	GetTransaction(ctx context.Context, txnID id.TransactionID) (*transaction.Transaction, error)
	ListTransactions(ctx context.Context, createdBy string, opts transaction.ListOpts) ([]*transaction.Transaction, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
