package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/invoicing"
	"github.com/xraph/invoicing/id"
	"github.com/xraph/invoicing/invoice"
	"github.com/xraph/invoicing/transaction"
	"github.com/xraph/invoicing/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := OpenSQLite("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testInvoice(t *testing.T, reference string) *invoice.Invoice {
	t.Helper()

	inv := &invoice.Invoice{
		Entity:          types.NewEntity(),
		ID:              id.NewInvoiceID(),
		ReferenceNumber: reference,
		CustomerName:    "ACME Corp",
		CustomerEmail:   "billing@acme.example",
		Status:          invoice.StatusPending,
		OwnerID:         "user-1",
		Version:         1,
	}
	item, err := invoice.NewLineItem(inv.ID, "Design work", 2, types.Cents(5000))
	if err != nil {
		t.Fatalf("NewLineItem() error = %v", err)
	}
	inv.LineItems = []invoice.LineItem{item}
	inv.RecalculateTotal()
	return inv
}

func TestInvoiceRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	inv := testInvoice(t, "INV-SQL00001")
	sale := transaction.New(inv.ID, transaction.TypeSale, inv.Total, "user-1")
	if err := s.CreateInvoice(ctx, inv, sale); err != nil {
		t.Fatalf("CreateInvoice() error = %v", err)
	}

	got, err := s.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetInvoice() error = %v", err)
	}
	if got.ReferenceNumber != inv.ReferenceNumber {
		t.Errorf("ReferenceNumber = %s, want %s", got.ReferenceNumber, inv.ReferenceNumber)
	}
	if !got.Total.Equal(types.MustParse("100.00")) {
		t.Errorf("Total = %s, want 100.00", got.Total)
	}
	if len(got.LineItems) != 1 {
		t.Fatalf("len(LineItems) = %d, want 1", len(got.LineItems))
	}
	if got.LineItems[0].Quantity != 2 || !got.LineItems[0].UnitPrice.Equal(types.Cents(5000)) {
		t.Errorf("line item = %+v, want qty 2 at 50.00", got.LineItems[0])
	}

	byRef, err := s.GetInvoiceByReference(ctx, "INV-SQL00001")
	if err != nil {
		t.Fatalf("GetInvoiceByReference() error = %v", err)
	}
	if byRef.ID.String() != inv.ID.String() {
		t.Errorf("GetInvoiceByReference() = %s, want %s", byRef.ID, inv.ID)
	}

	txns, err := s.ListTransactions(ctx, "user-1", transaction.ListOpts{InvoiceID: inv.ID})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txns) != 1 || txns[0].Type != transaction.TypeSale {
		t.Fatalf("transactions = %+v, want one sale", txns)
	}
}

func TestDuplicateReferenceRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.CreateInvoice(ctx, testInvoice(t, "INV-SQLDUP01"), nil); err != nil {
		t.Fatalf("CreateInvoice() error = %v", err)
	}

	dup := testInvoice(t, "INV-SQLDUP01")
	sale := transaction.New(dup.ID, transaction.TypeSale, dup.Total, "user-1")
	err := s.CreateInvoice(ctx, dup, sale)
	if !errors.Is(err, invoicing.ErrDuplicateReference) {
		t.Fatalf("CreateInvoice() error = %v, want ErrDuplicateReference", err)
	}

	txns, err := s.ListTransactions(ctx, "user-1", transaction.ListOpts{InvoiceID: dup.ID})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txns) != 0 {
		t.Errorf("transactions = %d, want 0 after rollback", len(txns))
	}
}

func TestSetInvoiceStatusVersionGuard(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	inv := testInvoice(t, "INV-SQLVER01")
	if err := s.CreateInvoice(ctx, inv, nil); err != nil {
		t.Fatalf("CreateInvoice() error = %v", err)
	}

	pay := transaction.New(inv.ID, transaction.TypePayment, inv.Total, "user-1")
	if err := s.SetInvoiceStatus(ctx, inv.ID, 1, invoice.StatusPaid, pay); err != nil {
		t.Fatalf("SetInvoiceStatus() error = %v", err)
	}

	stale := transaction.New(inv.ID, transaction.TypePayment, inv.Total, "user-1")
	err := s.SetInvoiceStatus(ctx, inv.ID, 1, invoice.StatusPaid, stale)
	if !errors.Is(err, invoicing.ErrVersionConflict) {
		t.Fatalf("stale SetInvoiceStatus() error = %v, want ErrVersionConflict", err)
	}

	err = s.SetInvoiceStatus(ctx, id.NewInvoiceID(), 1, invoice.StatusPaid, nil)
	if !errors.Is(err, invoicing.ErrInvoiceNotFound) {
		t.Fatalf("missing SetInvoiceStatus() error = %v, want ErrInvoiceNotFound", err)
	}

	got, err := s.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetInvoice() error = %v", err)
	}
	if got.Status != invoice.StatusPaid || got.Version != 2 {
		t.Errorf("invoice = status %s version %d, want paid/2", got.Status, got.Version)
	}

	txns, err := s.ListTransactions(ctx, "user-1", transaction.ListOpts{InvoiceID: inv.ID, Type: transaction.TypePayment})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txns) != 1 {
		t.Errorf("payment transactions = %d, want 1", len(txns))
	}
}

func TestUpdateInvoiceReplacesLineItems(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	inv := testInvoice(t, "INV-SQLUPD01")
	if err := s.CreateInvoice(ctx, inv, nil); err != nil {
		t.Fatalf("CreateInvoice() error = %v", err)
	}

	item, err := invoice.NewLineItem(inv.ID, "Rework", 4, types.Cents(1050))
	if err != nil {
		t.Fatalf("NewLineItem() error = %v", err)
	}
	inv.LineItems = []invoice.LineItem{item}
	inv.RecalculateTotal()

	if err := s.UpdateInvoice(ctx, inv); err != nil {
		t.Fatalf("UpdateInvoice() error = %v", err)
	}
	if inv.Version != 2 {
		t.Errorf("Version = %d, want 2", inv.Version)
	}

	got, err := s.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetInvoice() error = %v", err)
	}
	if len(got.LineItems) != 1 || got.LineItems[0].Description != "Rework" {
		t.Errorf("LineItems = %+v, want single Rework item", got.LineItems)
	}
	if !got.Total.Equal(types.MustParse("42.00")) {
		t.Errorf("Total = %s, want 42.00", got.Total)
	}

	// A writer still holding the old version loses.
	stale := *inv
	stale.Version = 1
	if err := s.UpdateInvoice(ctx, &stale); !errors.Is(err, invoicing.ErrVersionConflict) {
		t.Errorf("stale UpdateInvoice() error = %v, want ErrVersionConflict", err)
	}
}

func TestDeleteInvoiceCascade(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	inv := testInvoice(t, "INV-SQLDEL01")
	sale := transaction.New(inv.ID, transaction.TypeSale, inv.Total, "user-1")
	if err := s.CreateInvoice(ctx, inv, sale); err != nil {
		t.Fatalf("CreateInvoice() error = %v", err)
	}

	if err := s.DeleteInvoice(ctx, inv.ID); err != nil {
		t.Fatalf("DeleteInvoice() error = %v", err)
	}

	if _, err := s.GetInvoice(ctx, inv.ID); !errors.Is(err, invoicing.ErrInvoiceNotFound) {
		t.Errorf("GetInvoice() = %v, want ErrInvoiceNotFound", err)
	}
	txns, err := s.ListTransactions(ctx, "user-1", transaction.ListOpts{InvoiceID: inv.ID})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txns) != 0 {
		t.Errorf("transactions = %d, want 0 after cascade", len(txns))
	}

	if err := s.DeleteInvoice(ctx, inv.ID); !errors.Is(err, invoicing.ErrInvoiceNotFound) {
		t.Errorf("repeat DeleteInvoice() error = %v, want ErrInvoiceNotFound", err)
	}
}
