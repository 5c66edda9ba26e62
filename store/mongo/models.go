package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/invoicing/id"
	"github.com/xraph/invoicing/invoice"
	"github.com/xraph/invoicing/transaction"
	"github.com/xraph/invoicing/types"
)

// ==================== Invoice models ====================

// Line items are embedded in the invoice document; they are always read and
// replaced together with it.
type invoiceModel struct {
	ID              string      `bson:"_id"`
	ReferenceNumber string      `bson:"reference_number"`
	CustomerName    string      `bson:"customer_name"`
	CustomerEmail   string      `bson:"customer_email"`
	TotalCents      int64       `bson:"total_cents"`
	Status          string      `bson:"status"`
	OwnerID         string      `bson:"owner_id"`
	Version         int64       `bson:"version"`
	LineItems       []itemModel `bson:"line_items,omitempty"`
	CreatedAt       time.Time   `bson:"created_at"`
	UpdatedAt       time.Time   `bson:"updated_at"`
}

type itemModel struct {
	ID              string `bson:"id"`
	Description     string `bson:"description"`
	Quantity        int64  `bson:"quantity"`
	UnitPriceCents  int64  `bson:"unit_price_cents"`
	TotalPriceCents int64  `bson:"total_price_cents"`
}

func toInvoiceModel(inv *invoice.Invoice) *invoiceModel {
	items := make([]itemModel, len(inv.LineItems))
	for i, item := range inv.LineItems {
		items[i] = itemModel{
			ID:              item.ID.String(),
			Description:     item.Description,
			Quantity:        item.Quantity,
			UnitPriceCents:  item.UnitPrice.Amount,
			TotalPriceCents: item.TotalPrice.Amount,
		}
	}

	return &invoiceModel{
		ID:              inv.ID.String(),
		ReferenceNumber: inv.ReferenceNumber,
		CustomerName:    inv.CustomerName,
		CustomerEmail:   inv.CustomerEmail,
		TotalCents:      inv.Total.Amount,
		Status:          string(inv.Status),
		OwnerID:         inv.OwnerID,
		Version:         inv.Version,
		LineItems:       items,
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
	}
}

func fromInvoiceModel(m *invoiceModel) (*invoice.Invoice, error) {
	invID, err := id.ParseInvoiceID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("invoicing/mongo: parse invoice id: %w", err)
	}

	items := make([]invoice.LineItem, len(m.LineItems))
	for i, im := range m.LineItems {
		itemID, err := id.ParseLineItemID(im.ID)
		if err != nil {
			return nil, fmt.Errorf("invoicing/mongo: parse line item id: %w", err)
		}
		items[i] = invoice.LineItem{
			ID:          itemID,
			InvoiceID:   invID,
			Description: im.Description,
			Quantity:    im.Quantity,
			UnitPrice:   types.Cents(im.UnitPriceCents),
			TotalPrice:  types.Cents(im.TotalPriceCents),
		}
	}

	return &invoice.Invoice{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:              invID,
		ReferenceNumber: m.ReferenceNumber,
		CustomerName:    m.CustomerName,
		CustomerEmail:   m.CustomerEmail,
		Total:           types.Cents(m.TotalCents),
		Status:          invoice.Status(m.Status),
		OwnerID:         m.OwnerID,
		Version:         m.Version,
		LineItems:       items,
	}, nil
}

// ==================== Transaction models ====================

type transactionModel struct {
	ID          string    `bson:"_id"`
	InvoiceID   string    `bson:"invoice_id"`
	Type        string    `bson:"transaction_type"`
	AmountCents int64     `bson:"amount_cents"`
	Status      string    `bson:"status"`
	CreatedBy   string    `bson:"created_by"`
	CreatedAt   time.Time `bson:"created_at"`
}

func toTransactionModel(txn *transaction.Transaction) *transactionModel {
	return &transactionModel{
		ID:          txn.ID.String(),
		InvoiceID:   txn.InvoiceID.String(),
		Type:        string(txn.Type),
		AmountCents: txn.Amount.Amount,
		Status:      txn.Status,
		CreatedBy:   txn.CreatedBy,
		CreatedAt:   txn.CreatedAt,
	}
}

func fromTransactionModel(m *transactionModel) (*transaction.Transaction, error) {
	txnID, err := id.ParseTransactionID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("invoicing/mongo: parse transaction id: %w", err)
	}
	invID, err := id.ParseInvoiceID(m.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("invoicing/mongo: parse invoice id: %w", err)
	}

	return &transaction.Transaction{
		ID:        txnID,
		InvoiceID: invID,
		Type:      transaction.Type(m.Type),
		Amount:    types.Cents(m.AmountCents),
		Status:    m.Status,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}, nil
}
