package rest

import (
	"time"

	"github.com/xraph/invoicing"
	"github.com/xraph/invoicing/invoice"
	"github.com/xraph/invoicing/transaction"
	"github.com/xraph/invoicing/types"
)

// Request and response schemas are written out per endpoint. Monetary values
// travel as decimal strings ("175.00"); integer cents never cross the wire.

// ==================== Requests ====================

type itemRequest struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

type createInvoiceRequest struct {
	CustomerName    string        `json:"customer_name"`
	CustomerEmail   string        `json:"customer_email"`
	ReferenceNumber string        `json:"reference_number,omitempty"`
	Items           []itemRequest `json:"items,omitempty"`
}

// updateInvoiceRequest carries a partial update: absent fields are left
// unchanged, a present items array wholesale-replaces the line items.
type updateInvoiceRequest struct {
	CustomerName  *string        `json:"customer_name,omitempty"`
	CustomerEmail *string        `json:"customer_email,omitempty"`
	Status        *string        `json:"status,omitempty"`
	Items         *[]itemRequest `json:"items,omitempty"`
}

type createTransactionRequest struct {
	InvoiceID string `json:"invoice_id"`
	Type      string `json:"transaction_type"`
	Amount    string `json:"amount"`
	Status    string `json:"status,omitempty"`
}

func toItemInputs(items []itemRequest) ([]invoicing.ItemInput, error) {
	inputs := make([]invoicing.ItemInput, len(items))
	for i, item := range items {
		price, err := types.Parse(item.UnitPrice)
		if err != nil {
			return nil, invoicing.ValidationError{Field: "items", Message: "invalid unit_price " + item.UnitPrice}
		}
		inputs[i] = invoicing.ItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   price,
		}
	}
	return inputs, nil
}

// ==================== Responses ====================

type itemResponse struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	TotalPrice  string `json:"total_price"`
}

type invoiceResponse struct {
	ID              string         `json:"id"`
	ReferenceNumber string         `json:"reference_number"`
	CustomerName    string         `json:"customer_name"`
	CustomerEmail   string         `json:"customer_email"`
	TotalAmount     string         `json:"total_amount"`
	Status          string         `json:"status"`
	Items           []itemResponse `json:"items"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type transactionResponse struct {
	ID              string    `json:"id"`
	InvoiceID       string    `json:"invoice_id"`
	Type            string    `json:"transaction_type"`
	Amount          string    `json:"amount"`
	Status          string    `json:"status"`
	CreatedBy       string    `json:"created_by"`
	TransactionDate time.Time `json:"transaction_date"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func toInvoiceResponse(inv *invoice.Invoice) invoiceResponse {
	items := make([]itemResponse, len(inv.LineItems))
	for i, item := range inv.LineItems {
		items[i] = itemResponse{
			ID:          item.ID.String(),
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.String(),
			TotalPrice:  item.TotalPrice.String(),
		}
	}

	return invoiceResponse{
		ID:              inv.ID.String(),
		ReferenceNumber: inv.ReferenceNumber,
		CustomerName:    inv.CustomerName,
		CustomerEmail:   inv.CustomerEmail,
		TotalAmount:     inv.Total.String(),
		Status:          string(inv.Status),
		Items:           items,
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
	}
}

func toInvoiceResponses(invs []*invoice.Invoice) []invoiceResponse {
	out := make([]invoiceResponse, len(invs))
	for i, inv := range invs {
		out[i] = toInvoiceResponse(inv)
	}
	return out
}

func toTransactionResponse(txn *transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:              txn.ID.String(),
		InvoiceID:       txn.InvoiceID.String(),
		Type:            string(txn.Type),
		Amount:          txn.Amount.String(),
		Status:          txn.Status,
		CreatedBy:       txn.CreatedBy,
		TransactionDate: txn.CreatedAt,
	}
}

func toTransactionResponses(txns []*transaction.Transaction) []transactionResponse {
	out := make([]transactionResponse, len(txns))
	for i, txn := range txns {
		out[i] = toTransactionResponse(txn)
	}
	return out
}
