// Package invoicing provides an embeddable invoicing engine for Go
// applications.
//
// Invoicing is designed as a library, not a service. Import it directly into
// your Go application, or mount the bundled REST surface when you need a
// standalone backend. It provides:
//
//   - Invoice lifecycle management (pending → paid / cancelled) with an
//     explicit, configurable transition policy
//   - Exact fixed-point invoice totals aggregated from line items
//   - An append-only ledger of sale and payment transactions
//   - Optimistic version checks so concurrent status changes cannot
//     double-record a payment
//   - Pluggable lifecycle hooks (audit trails, metrics)
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/invoicing"
//	    "github.com/xraph/invoicing/store/memory"
//	)
//
//	eng := invoicing.New(memory.New())
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
//
// Every operation runs on behalf of an authenticated actor carried in the
// context; invoices are owned exclusively by their creator:
//
//	ctx = invoicing.WithActor(ctx, "user-42")
//
//	inv := &invoice.Invoice{
//	    CustomerName:  "ACME Corp",
//	    CustomerEmail: "billing@acme.example",
//	}
//	err := eng.CreateInvoice(ctx, inv, []invoicing.ItemInput{
//	    {Description: "Design work", Quantity: 2, UnitPrice: invoicing.Cents(5000)},
//	    {Description: "Hosting", Quantity: 3, UnitPrice: invoicing.Cents(2500)},
//	})
//	// inv.Total == 175.00, one "sale" transaction recorded.
//
//	paid, err := eng.MarkPaid(ctx, inv.ID)
//	// status == "paid", one "payment" transaction of 175.00 recorded.
//
// # Money
//
// All monetary calculations use integer arithmetic on the smallest currency
// unit; decimal strings parse and format exactly, so sums of line items never
// drift the way binary floating point does.
//
// # TypeID
//
// Entities use TypeID for globally unique, type-safe identifiers:
//
//	inv_01h455vb4pex5vsknk084sn02q   // Invoice
//	item_01h455vb4pex5vsknk084sn02q  // Line item
//	txn_01h455vb4pex5vsknk084sn02q   // Ledger transaction
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package invoicing
