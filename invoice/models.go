// Package invoice defines the invoice domain model: the billable document,
// its line items, the lifecycle status enum, and the transition policy that
// governs payment.
package invoice

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/xraph/invoicing/id"
	"github.com/xraph/invoicing/types"
)

// Status is the invoice lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled:
		return true
	default:
		return false
	}
}

// Invoice is a billable document addressed to a customer. The reference
// number is unique and immutable after creation. Total always equals the
// exact sum of the line item totals whenever line items exist. Version
// guards status-changing writes against concurrent modification.
type Invoice struct {
	types.Entity
	ID              id.InvoiceID `json:"id"`
	ReferenceNumber string       `json:"reference_number"`
	CustomerName    string       `json:"customer_name"`
	CustomerEmail   string       `json:"customer_email"`
	Total           types.Money  `json:"total_amount"`
	Status          Status       `json:"status"`
	OwnerID         string       `json:"owner_id"`
	Version         int64        `json:"version"`
	LineItems       []LineItem   `json:"items"`
}

// LineItem is one priced entry within an invoice. TotalPrice is always
// recomputed as Quantity × UnitPrice on write and never caller-settable.
type LineItem struct {
	ID          id.LineItemID `json:"id"`
	InvoiceID   id.InvoiceID  `json:"invoice_id"`
	Description string        `json:"description"`
	Quantity    int64         `json:"quantity"`
	UnitPrice   types.Money   `json:"unit_price"`
	TotalPrice  types.Money   `json:"total_price"`
}

// NewLineItem builds a line item for the given invoice, computing its total
// price. Quantity must be a positive integer.
func NewLineItem(invID id.InvoiceID, description string, quantity int64, unitPrice types.Money) (LineItem, error) {
	if quantity <= 0 {
		return LineItem{}, fmt.Errorf("invoice: line item quantity must be positive, got %d", quantity)
	}

	return LineItem{
		ID:          id.NewLineItemID(),
		InvoiceID:   invID,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TotalPrice:  unitPrice.Multiply(quantity),
	}, nil
}

// RecalculateTotal recomputes the invoice total as the exact sum of the
// attached line item totals, stores it on the invoice, and returns it.
// Call it whenever line items are created or replaced.
func (inv *Invoice) RecalculateTotal() types.Money {
	totals := make([]types.Money, len(inv.LineItems))
	for i, item := range inv.LineItems {
		totals[i] = item.TotalPrice
	}

	inv.Total = types.Sum(totals...)
	return inv.Total
}

// NewReferenceNumber generates a reference in the form "INV-XXXXXXXX" for
// invoices created without a caller-supplied reference.
func NewReferenceNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "INV-" + suffix[:8]
}
