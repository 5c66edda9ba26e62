// Package memory provides an in-memory store implementation, suitable for
// tests and development. All data is lost when the process exits.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/invoicing"
	"github.com/xraph/invoicing/id"
	"github.com/xraph/invoicing/invoice"
	"github.com/xraph/invoicing/transaction"
)

// Store keeps all entities in mutex-guarded maps. Values are cloned on both
// write and read so callers can never mutate stored state through a shared
// pointer.
type Store struct {
	mu     sync.RWMutex
	closed bool

	// Invoice storage, with a reference-number index for uniqueness and
	// lookup.
	invoices    map[string]*invoice.Invoice
	byReference map[string]string // reference number -> invoice ID

	// Append-only ledger, in insertion order.
	transactions []*transaction.Transaction
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		invoices:     make(map[string]*invoice.Invoice),
		byReference:  make(map[string]string),
		transactions: make([]*transaction.Transaction, 0),
	}
}

// Invoice Store implementation

func (s *Store) CreateInvoice(_ context.Context, inv *invoice.Invoice, sale *transaction.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return invoicing.ErrStoreClosed
	}
	if _, taken := s.byReference[inv.ReferenceNumber]; taken {
		return invoicing.ErrDuplicateReference
	}

	s.invoices[inv.ID.String()] = cloneInvoice(inv)
	s.byReference[inv.ReferenceNumber] = inv.ID.String()
	if sale != nil {
		s.transactions = append(s.transactions, cloneTransaction(sale))
	}
	return nil
}

func (s *Store) GetInvoice(_ context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, invoicing.ErrStoreClosed
	}
	if inv, ok := s.invoices[invID.String()]; ok {
		return cloneInvoice(inv), nil
	}
	return nil, invoicing.ErrInvoiceNotFound
}

func (s *Store) GetInvoiceByReference(_ context.Context, reference string) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, invoicing.ErrStoreClosed
	}
	if invID, ok := s.byReference[reference]; ok {
		return cloneInvoice(s.invoices[invID]), nil
	}
	return nil, invoicing.ErrInvoiceNotFound
}

func (s *Store) ListInvoices(_ context.Context, ownerID string, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, invoicing.ErrStoreClosed
	}

	result := make([]*invoice.Invoice, 0)
	for _, inv := range s.invoices {
		if inv.OwnerID != ownerID {
			continue
		}
		if opts.Status != "" && inv.Status != opts.Status {
			continue
		}
		result = append(result, cloneInvoice(inv))
	}

	// Newest first, matching the SQL drivers.
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID.String() > result[j].ID.String()
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateInvoice(_ context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return invoicing.ErrStoreClosed
	}
	stored, ok := s.invoices[inv.ID.String()]
	if !ok {
		return invoicing.ErrInvoiceNotFound
	}
	if stored.Version != inv.Version {
		return invoicing.ErrVersionConflict
	}

	next := cloneInvoice(inv)
	next.Version = inv.Version + 1
	s.invoices[inv.ID.String()] = next
	inv.Version = next.Version
	return nil
}

func (s *Store) SetInvoiceStatus(_ context.Context, invID id.InvoiceID, expectedVersion int64, status invoice.Status, txn *transaction.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return invoicing.ErrStoreClosed
	}
	stored, ok := s.invoices[invID.String()]
	if !ok {
		return invoicing.ErrInvoiceNotFound
	}
	if stored.Version != expectedVersion {
		return invoicing.ErrVersionConflict
	}

	stored.Status = status
	stored.Version = expectedVersion + 1
	stored.Touch()
	if txn != nil {
		s.transactions = append(s.transactions, cloneTransaction(txn))
	}
	return nil
}

func (s *Store) DeleteInvoice(_ context.Context, invID id.InvoiceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return invoicing.ErrStoreClosed
	}
	stored, ok := s.invoices[invID.String()]
	if !ok {
		return invoicing.ErrInvoiceNotFound
	}

	delete(s.byReference, stored.ReferenceNumber)
	delete(s.invoices, invID.String())

	// Cascade: drop every ledger entry referencing the invoice.
	kept := s.transactions[:0]
	for _, txn := range s.transactions {
		if txn.InvoiceID.String() != invID.String() {
			kept = append(kept, txn)
		}
	}
	s.transactions = kept
	return nil
}

// Transaction Store implementation

func (s *Store) CreateTransaction(_ context.Context, txn *transaction.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return invoicing.ErrStoreClosed
	}
	s.transactions = append(s.transactions, cloneTransaction(txn))
	return nil
}

func (s *Store) GetTransaction(_ context.Context, txnID id.TransactionID) (*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, invoicing.ErrStoreClosed
	}
	for _, txn := range s.transactions {
		if txn.ID.String() == txnID.String() {
			return cloneTransaction(txn), nil
		}
	}
	return nil, invoicing.ErrTransactionNotFound
}

func (s *Store) ListTransactions(_ context.Context, createdBy string, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, invoicing.ErrStoreClosed
	}

	result := make([]*transaction.Transaction, 0)
	for _, txn := range s.transactions {
		if txn.CreatedBy != createdBy {
			continue
		}
		if !opts.InvoiceID.IsNil() && txn.InvoiceID.String() != opts.InvoiceID.String() {
			continue
		}
		if opts.Type != "" && txn.Type != opts.Type {
			continue
		}
		result = append(result, cloneTransaction(txn))
	}

	return paginate(result, opts.Offset, opts.Limit), nil
}

// Core Store implementation

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return invoicing.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func cloneInvoice(inv *invoice.Invoice) *invoice.Invoice {
	clone := *inv
	clone.LineItems = make([]invoice.LineItem, len(inv.LineItems))
	copy(clone.LineItems, inv.LineItems)
	return &clone
}

func cloneTransaction(txn *transaction.Transaction) *transaction.Transaction {
	clone := *txn
	return &clone
}

func paginate[T any](result []T, offset, limit int) []T {
	start := offset
	if start > len(result) {
		start = len(result)
	}
	end := start + limit
	if limit == 0 || end > len(result) {
		end = len(result)
	}
	return result[start:end]
}
