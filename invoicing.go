package invoicing

import (
	"context"
	"log/slog"
	"strings"

	"github.com/xraph/invoicing/id"
	"github.com/xraph/invoicing/invoice"
	"github.com/xraph/invoicing/plugin"
	"github.com/xraph/invoicing/store"
	"github.com/xraph/invoicing/transaction"
	"github.com/xraph/invoicing/types"
)

// Engine is the invoice lifecycle manager. It validates input, applies the
// configured transition policy, keeps invoice totals consistent with their
// line items, and records every monetary state change as a ledger
// transaction.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	policy  invoice.TransitionPolicy
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   s,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		policy:  invoice.PolicyPermissive,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithTransitionPolicy selects the mark-paid transition policy.
// The default is invoice.PolicyPermissive.
func WithTransitionPolicy(p invoice.TransitionPolicy) Option {
	return func(e *Engine) {
		if p.Valid() {
			e.policy = p
		}
	}
}

// Policy returns the configured transition policy.
func (e *Engine) Policy() invoice.TransitionPolicy { return e.policy }

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("invoicing engine started",
		"transition_policy", string(e.policy),
	)

	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// ──────────────────────────────────────────────────
// Invoice lifecycle
// ──────────────────────────────────────────────────

// ItemInput is the caller-supplied shape of one line item. Totals are never
// accepted from callers; they are recomputed from quantity and unit price.
type ItemInput struct {
	Description string
	Quantity    int64
	UnitPrice   types.Money
}

// CreateInvoice persists a new invoice owned by the acting user with
// status=pending. When items are supplied, each line item total and the
// invoice total are computed and one "sale" transaction for the computed
// total is recorded atomically with the invoice. With no items the total
// stays at the caller-supplied value (zero unless set) and no sale
// transaction is created.
func (e *Engine) CreateInvoice(ctx context.Context, inv *invoice.Invoice, items []ItemInput) error {
	actor := ActorFrom(ctx)
	if actor == "" {
		return ErrMissingActor
	}

	if err := validateCustomer(inv.CustomerName, inv.CustomerEmail); err != nil {
		return err
	}

	if inv.ID == (id.InvoiceID{}) {
		inv.ID = id.NewInvoiceID()
	}
	inv.Entity = types.NewEntity()
	inv.OwnerID = actor
	inv.Status = invoice.StatusPending
	inv.Version = 1
	if inv.ReferenceNumber == "" {
		inv.ReferenceNumber = invoice.NewReferenceNumber()
	}

	lineItems, err := buildLineItems(inv.ID, items)
	if err != nil {
		return err
	}
	inv.LineItems = lineItems

	var sale *transaction.Transaction
	if len(inv.LineItems) > 0 {
		inv.RecalculateTotal()
		sale = transaction.New(inv.ID, transaction.TypeSale, inv.Total, actor)
	}

	if err := e.store.CreateInvoice(ctx, inv, sale); err != nil {
		return err
	}

	e.logger.Debug("invoice created",
		"invoice_id", inv.ID.String(),
		"reference", inv.ReferenceNumber,
		"total", inv.Total.String(),
		"items", len(inv.LineItems),
	)

	e.plugins.EmitInvoiceCreated(ctx, inv)
	if sale != nil {
		e.plugins.EmitTransactionRecorded(ctx, sale)
	}
	return nil
}

// GetInvoice retrieves an invoice by ID. Invoices are owned exclusively by
// their creator: a foreign invoice surfaces as not found.
func (e *Engine) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	inv, _, err := e.ownedInvoice(ctx, invID)
	return inv, err
}

// GetInvoiceByReference retrieves an invoice by its reference number,
// scoped to the acting user.
func (e *Engine) GetInvoiceByReference(ctx context.Context, reference string) (*invoice.Invoice, error) {
	actor := ActorFrom(ctx)
	if actor == "" {
		return nil, ErrMissingActor
	}

	inv, err := e.store.GetInvoiceByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if inv.OwnerID != actor {
		return nil, ErrInvoiceNotFound
	}
	return inv, nil
}

// ListInvoices lists the acting user's invoices.
func (e *Engine) ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	actor := ActorFrom(ctx)
	if actor == "" {
		return nil, ErrMissingActor
	}

	return e.store.ListInvoices(ctx, actor, opts)
}

// InvoiceUpdate describes a partial invoice update. Nil fields are left
// unchanged. A non-nil Items slice wholesale-replaces the line items
// (delete-all, recreate) and forces total recalculation; no new sale
// transaction is recorded for replacements.
type InvoiceUpdate struct {
	CustomerName  *string
	CustomerEmail *string
	Status        *invoice.Status
	Items         []ItemInput
}

// UpdateInvoice applies a version-checked update to an owned invoice and
// returns the updated representation. The reference number is immutable.
func (e *Engine) UpdateInvoice(ctx context.Context, invID id.InvoiceID, upd InvoiceUpdate) (*invoice.Invoice, error) {
	inv, _, err := e.ownedInvoice(ctx, invID)
	if err != nil {
		return nil, err
	}

	if upd.CustomerName != nil {
		inv.CustomerName = *upd.CustomerName
	}
	if upd.CustomerEmail != nil {
		inv.CustomerEmail = *upd.CustomerEmail
	}
	if err := validateCustomer(inv.CustomerName, inv.CustomerEmail); err != nil {
		return nil, err
	}

	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, ValidationError{Field: "status", Message: "unknown status " + string(*upd.Status)}
		}
		inv.Status = *upd.Status
	}

	if upd.Items != nil {
		lineItems, err := buildLineItems(inv.ID, upd.Items)
		if err != nil {
			return nil, err
		}
		inv.LineItems = lineItems
		inv.RecalculateTotal()
	}

	inv.Touch()
	if err := e.store.UpdateInvoice(ctx, inv); err != nil {
		return nil, err
	}

	e.plugins.EmitInvoiceUpdated(ctx, inv)
	return inv, nil
}

// MarkPaid transitions an invoice to paid under the configured policy and
// appends one "payment" transaction for the invoice's current total, in the
// same unit of work. The write is guarded by the invoice version, so two
// concurrent calls cannot both record a payment.
func (e *Engine) MarkPaid(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	inv, actor, err := e.ownedInvoice(ctx, invID)
	if err != nil {
		return nil, err
	}

	if !e.policy.CanMarkPaid(inv.Status) {
		return nil, ErrInvalidTransition
	}

	txn := transaction.New(inv.ID, transaction.TypePayment, inv.Total, actor)
	if err := e.store.SetInvoiceStatus(ctx, inv.ID, inv.Version, invoice.StatusPaid, txn); err != nil {
		return nil, err
	}

	inv.Status = invoice.StatusPaid
	inv.Version++
	inv.Touch()

	e.logger.Debug("invoice marked paid",
		"invoice_id", inv.ID.String(),
		"amount", txn.Amount.String(),
	)

	e.plugins.EmitInvoicePaid(ctx, inv)
	e.plugins.EmitTransactionRecorded(ctx, txn)
	return inv, nil
}

// MarkPending unconditionally resets an invoice to pending. No transaction
// is recorded.
func (e *Engine) MarkPending(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	inv, _, err := e.ownedInvoice(ctx, invID)
	if err != nil {
		return nil, err
	}

	if err := e.store.SetInvoiceStatus(ctx, inv.ID, inv.Version, invoice.StatusPending, nil); err != nil {
		return nil, err
	}

	inv.Status = invoice.StatusPending
	inv.Version++
	inv.Touch()

	e.plugins.EmitInvoiceMarkedPending(ctx, inv)
	return inv, nil
}

// DeleteInvoice removes an owned invoice together with its line items and
// every transaction referencing it.
func (e *Engine) DeleteInvoice(ctx context.Context, invID id.InvoiceID) error {
	inv, _, err := e.ownedInvoice(ctx, invID)
	if err != nil {
		return err
	}

	if err := e.store.DeleteInvoice(ctx, inv.ID); err != nil {
		return err
	}

	e.logger.Debug("invoice deleted", "invoice_id", inv.ID.String())
	e.plugins.EmitInvoiceDeleted(ctx, inv.ID.String())
	return nil
}

// ──────────────────────────────────────────────────
// Ledger
// ──────────────────────────────────────────────────

// RecordTransaction appends an immutable ledger entry. The referenced
// invoice must exist and be owned by the acting user. Amount sign is not
// validated: zero and negative amounts are accepted. Status defaults to
// "completed" when empty.
func (e *Engine) RecordTransaction(ctx context.Context, txn *transaction.Transaction) error {
	actor := ActorFrom(ctx)
	if actor == "" {
		return ErrMissingActor
	}

	if txn.InvoiceID.IsNil() {
		return ErrMissingInvoice
	}
	if !txn.Type.Valid() {
		return ValidationError{Field: "transaction_type", Message: "unknown type " + string(txn.Type)}
	}

	// Referential integrity: the invoice must exist and belong to the actor.
	if _, _, err := e.ownedInvoice(ctx, txn.InvoiceID); err != nil {
		return err
	}

	if txn.ID == (id.TransactionID{}) {
		txn.ID = id.NewTransactionID()
	}
	if txn.Status == "" {
		txn.Status = transaction.StatusCompleted
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = types.NewEntity().CreatedAt
	}
	txn.CreatedBy = actor

	if err := e.store.CreateTransaction(ctx, txn); err != nil {
		return err
	}

	e.plugins.EmitTransactionRecorded(ctx, txn)
	return nil
}

// GetTransaction retrieves a ledger entry recorded by the acting user.
func (e *Engine) GetTransaction(ctx context.Context, txnID id.TransactionID) (*transaction.Transaction, error) {
	actor := ActorFrom(ctx)
	if actor == "" {
		return nil, ErrMissingActor
	}

	txn, err := e.store.GetTransaction(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if txn.CreatedBy != actor {
		return nil, ErrTransactionNotFound
	}
	return txn, nil
}

// ListTransactions lists ledger entries recorded by the acting user.
func (e *Engine) ListTransactions(ctx context.Context, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	actor := ActorFrom(ctx)
	if actor == "" {
		return nil, ErrMissingActor
	}

	return e.store.ListTransactions(ctx, actor, opts)
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// ownedInvoice loads an invoice and enforces exclusive owner access.
// Foreign invoices are indistinguishable from missing ones.
func (e *Engine) ownedInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, string, error) {
	actor := ActorFrom(ctx)
	if actor == "" {
		return nil, "", ErrMissingActor
	}

	inv, err := e.store.GetInvoice(ctx, invID)
	if err != nil {
		return nil, "", err
	}
	if inv.OwnerID != actor {
		return nil, "", ErrInvoiceNotFound
	}
	return inv, actor, nil
}

func validateCustomer(name, email string) error {
	if name == "" {
		return ValidationError{Field: "customer_name", Message: "must not be empty"}
	}
	if email == "" || !strings.Contains(email, "@") {
		return ValidationError{Field: "customer_email", Message: "must be a valid email address"}
	}
	return nil
}

func buildLineItems(invID id.InvoiceID, items []ItemInput) ([]invoice.LineItem, error) {
	if len(items) == 0 {
		return nil, nil
	}

	result := make([]invoice.LineItem, 0, len(items))
	for _, in := range items {
		item, err := invoice.NewLineItem(invID, in.Description, in.Quantity, in.UnitPrice)
		if err != nil {
			return nil, ValidationError{Field: "items", Message: err.Error()}
		}
		result = append(result, item)
	}
	return result, nil
}
