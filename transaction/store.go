package transaction

import (
	"context"

	"github.com/xraph/invoicing/id"
)

// Store is the ledger persistence interface. Append and read only — there is
// deliberately no update or single-record delete.
type Store interface {
	Create(ctx context.Context, txn *Transaction) error
	Get(ctx context.Context, txnID id.TransactionID) (*Transaction, error)
	List(ctx context.Context, createdBy string, opts ListOpts) ([]*Transaction, error)
}

// ListOpts filters ledger listings.
type ListOpts struct {
	InvoiceID id.InvoiceID
	Type      Type
	Limit     int
	Offset    int
}
