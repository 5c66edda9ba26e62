package sqlstore

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/xraph/invoicing/id"
	"github.com/xraph/invoicing/invoice"
	"github.com/xraph/invoicing/transaction"
	"github.com/xraph/invoicing/types"
)

// ==================== Invoice models ====================

// Line items are embedded as a JSON document: they live and die with their
// invoice and are always read and replaced as a whole, never queried
// individually.
type invoiceModel struct {
	ID              string         `gorm:"column:id;primaryKey"`
	ReferenceNumber string         `gorm:"column:reference_number;uniqueIndex"`
	CustomerName    string         `gorm:"column:customer_name"`
	CustomerEmail   string         `gorm:"column:customer_email"`
	TotalCents      int64          `gorm:"column:total_cents"`
	Status          string         `gorm:"column:status;index"`
	OwnerID         string         `gorm:"column:owner_id;index"`
	Version         int64          `gorm:"column:version"`
	LineItems       datatypes.JSON `gorm:"column:line_items"`
	CreatedAt       time.Time      `gorm:"column:created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at"`
}

func (invoiceModel) TableName() string { return "invoicing_invoices" }

// itemRecord is the JSON shape of one stored line item. Prices are stored in
// minor units so the round trip stays exact.
type itemRecord struct {
	ID              string `json:"id"`
	Description     string `json:"description"`
	Quantity        int64  `json:"quantity"`
	UnitPriceCents  int64  `json:"unit_price_cents"`
	TotalPriceCents int64  `json:"total_price_cents"`
}

func toInvoiceModel(inv *invoice.Invoice) (*invoiceModel, error) {
	records := make([]itemRecord, len(inv.LineItems))
	for i, item := range inv.LineItems {
		records[i] = itemRecord{
			ID:              item.ID.String(),
			Description:     item.Description,
			Quantity:        item.Quantity,
			UnitPriceCents:  item.UnitPrice.Amount,
			TotalPriceCents: item.TotalPrice.Amount,
		}
	}
	items, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("invoicing/sqlstore: marshal line items: %w", err)
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
		LineItems:       datatypes.JSON(items),
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
	}, nil
}

func fromInvoiceModel(m *invoiceModel) (*invoice.Invoice, error) {
	invID, err := id.ParseInvoiceID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("invoicing/sqlstore: parse invoice id: %w", err)
	}

	var records []itemRecord
	if len(m.LineItems) > 0 {
		if err := json.Unmarshal(m.LineItems, &records); err != nil {
			return nil, fmt.Errorf("invoicing/sqlstore: unmarshal line items: %w", err)
		}
	}
	items := make([]invoice.LineItem, len(records))
	for i, rec := range records {
		itemID, err := id.ParseLineItemID(rec.ID)
		if err != nil {
			return nil, fmt.Errorf("invoicing/sqlstore: parse line item id: %w", err)
		}
		items[i] = invoice.LineItem{
			ID:          itemID,
			InvoiceID:   invID,
			Description: rec.Description,
			Quantity:    rec.Quantity,
			UnitPrice:   types.Cents(rec.UnitPriceCents),
			TotalPrice:  types.Cents(rec.TotalPriceCents),
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
	ID          string    `gorm:"column:id;primaryKey"`
	InvoiceID   string    `gorm:"column:invoice_id;index"`
	Type        string    `gorm:"column:transaction_type;index"`
	AmountCents int64     `gorm:"column:amount_cents"`
	Status      string    `gorm:"column:status"`
	CreatedBy   string    `gorm:"column:created_by;index"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (transactionModel) TableName() string { return "invoicing_transactions" }

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
		return nil, fmt.Errorf("invoicing/sqlstore: parse transaction id: %w", err)
	}
	invID, err := id.ParseInvoiceID(m.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("invoicing/sqlstore: parse invoice id: %w", err)
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
