// Package sqlstore provides a relational store implementation backed by
// GORM, with SQLite and PostgreSQL drivers. Multi-step writes run inside a
// database transaction; status changes are guarded by a version column.
package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xraph/invoicing"
	"github.com/xraph/invoicing/id"
	"github.com/xraph/invoicing/invoice"
	"github.com/xraph/invoicing/store"
	"github.com/xraph/invoicing/transaction"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store on a relational database via GORM.
type Store struct {
	db *gorm.DB
}

// New wraps an existing GORM handle. The handle must have been opened with
// TranslateError enabled for duplicate-reference detection to work; the
// OpenSQLite and OpenPostgres helpers take care of that.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// OpenSQLite opens a SQLite-backed store at the given path. Use ":memory:"
// for an ephemeral database.
func OpenSQLite(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("invoicing/sqlstore: open sqlite: %w", err)
	}
	return New(db), nil
}

// OpenPostgres opens a PostgreSQL-backed store with the given DSN.
func OpenPostgres(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("invoicing/sqlstore: open postgres: %w", err)
	}
	return New(db), nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	}
}

// DB returns the underlying GORM handle for direct access.
func (s *Store) DB() *gorm.DB { return s.db }

// ==================== Invoice Store ====================

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice, sale *transaction.Transaction) error {
	m, err := toInvoiceModel(inv)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return invoicing.ErrDuplicateReference
			}
			return err
		}
		if sale != nil {
			if err := tx.Create(toTransactionModel(sale)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	m := new(invoiceModel)
	err := s.db.WithContext(ctx).First(m, "id = ?", invID.String()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invoicing.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromInvoiceModel(m)
}

func (s *Store) GetInvoiceByReference(ctx context.Context, reference string) (*invoice.Invoice, error) {
	m := new(invoiceModel)
	err := s.db.WithContext(ctx).First(m, "reference_number = ?", reference).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invoicing.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromInvoiceModel(m)
}

func (s *Store) ListInvoices(ctx context.Context, ownerID string, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	q := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC")
	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	var models []invoiceModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}

	result := make([]*invoice.Invoice, len(models))
	for i := range models {
		inv, err := fromInvoiceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = inv
	}
	return result, nil
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	m, err := toInvoiceModel(inv)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&invoiceModel{}).
			Where("id = ? AND version = ?", m.ID, inv.Version).
			Updates(map[string]any{
				"customer_name":  m.CustomerName,
				"customer_email": m.CustomerEmail,
				"total_cents":    m.TotalCents,
				"status":         m.Status,
				"line_items":     m.LineItems,
				"version":        inv.Version + 1,
				"updated_at":     m.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return staleOrMissing(tx, m.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	inv.Version++
	return nil
}

func (s *Store) SetInvoiceStatus(ctx context.Context, invID id.InvoiceID, expectedVersion int64, status invoice.Status, txn *transaction.Transaction) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&invoiceModel{}).
			Where("id = ? AND version = ?", invID.String(), expectedVersion).
			Updates(map[string]any{
				"status":     string(status),
				"version":    expectedVersion + 1,
				"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return staleOrMissing(tx, invID.String())
		}
		if txn != nil {
			if err := tx.Create(toTransactionModel(txn)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) DeleteInvoice(ctx context.Context, invID id.InvoiceID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&invoiceModel{}, "id = ?", invID.String())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return invoicing.ErrInvoiceNotFound
		}
		return tx.Delete(&transactionModel{}, "invoice_id = ?", invID.String()).Error
	})
}

// staleOrMissing disambiguates a zero-row conditional update: the invoice is
// either gone or its version moved on.
func staleOrMissing(tx *gorm.DB, invID string) error {
	var count int64
	if err := tx.Model(&invoiceModel{}).Where("id = ?", invID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return invoicing.ErrInvoiceNotFound
	}
	return invoicing.ErrVersionConflict
}

// ==================== Transaction Store ====================

func (s *Store) CreateTransaction(ctx context.Context, txn *transaction.Transaction) error {
	return s.db.WithContext(ctx).Create(toTransactionModel(txn)).Error
}

func (s *Store) GetTransaction(ctx context.Context, txnID id.TransactionID) (*transaction.Transaction, error) {
	m := new(transactionModel)
	err := s.db.WithContext(ctx).First(m, "id = ?", txnID.String()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invoicing.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromTransactionModel(m)
}

func (s *Store) ListTransactions(ctx context.Context, createdBy string, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	q := s.db.WithContext(ctx).
		Where("created_by = ?", createdBy).
		Order("created_at DESC, id DESC")
	if !opts.InvoiceID.IsNil() {
		q = q.Where("invoice_id = ?", opts.InvoiceID.String())
	}
	if opts.Type != "" {
		q = q.Where("transaction_type = ?", string(opts.Type))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	var models []transactionModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}

	result := make([]*transaction.Transaction, len(models))
	for i := range models {
		txn, err := fromTransactionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = txn
	}
	return result, nil
}

// ==================== Core Store ====================

// Migrate creates the required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&invoiceModel{}, &transactionModel{}); err != nil {
		return fmt.Errorf("invoicing/sqlstore: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
