package invoice

import (
	"context"

	"github.com/xraph/invoicing/id"
)

// Store is the invoice persistence interface. Line items live and die with
// their invoice: they are written as part of the invoice and removed when it
// is deleted.
type Store interface {
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, invID id.InvoiceID) (*Invoice, error)
	GetByReference(ctx context.Context, reference string) (*Invoice, error)
	List(ctx context.Context, ownerID string, opts ListOpts) ([]*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	Delete(ctx context.Context, invID id.InvoiceID) error
}

// ListOpts filters invoice listings.
type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
