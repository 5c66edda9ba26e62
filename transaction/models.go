// Package transaction defines the immutable ledger record tied to an
// invoice. Transactions are append-only: the engine never updates or deletes
// them; they disappear only when their invoice is cascade-deleted.
package transaction

import (
	"time"

	"github.com/xraph/invoicing/id"
	"github.com/xraph/invoicing/types"
)

// Type classifies the monetary event a transaction records.
type Type string

const (
	// TypeSale is recorded when an invoice is created with line items.
	TypeSale Type = "sale"

	// TypePayment is recorded when an invoice is marked paid.
	TypePayment Type = "payment"
)

// Valid reports whether t is a known transaction type.
func (t Type) Valid() bool {
	return t == TypeSale || t == TypePayment
}

// StatusCompleted is the default transaction status.
const StatusCompleted = "completed"

// Transaction is one immutable ledger entry. Amount sign is deliberately
// unconstrained: refunds and corrections are negative, zero is accepted.
type Transaction struct {
	ID        id.TransactionID `json:"id"`
	InvoiceID id.InvoiceID     `json:"invoice_id"`
	Type      Type             `json:"transaction_type"`
	Amount    types.Money      `json:"amount"`
	Status    string           `json:"status"`
	CreatedBy string           `json:"created_by"`
	CreatedAt time.Time        `json:"transaction_date"`
}

// New builds a ledger entry with a fresh ID, the default "completed" status,
// and the current timestamp.
func New(invID id.InvoiceID, typ Type, amount types.Money, actor string) *Transaction {
	return &Transaction{
		ID:        id.NewTransactionID(),
		InvoiceID: invID,
		Type:      typ,
		Amount:    amount,
		Status:    StatusCompleted,
		CreatedBy: actor,
		CreatedAt: time.Now().UTC(),
	}
}
