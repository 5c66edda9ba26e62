// Package mongo provides a MongoDB store implementation on the official
// driver. Concurrency control uses version-filtered updates; the duplicate
// reference check rides on a unique index created by Migrate.
//
// Multi-document writes (invoice plus its sale or payment transaction,
// cascade deletes) run inside session transactions, so the server must be
// a replica set member or mongos. Standalone servers reject transactions.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/xraph/invoicing"
	"github.com/xraph/invoicing/id"
	"github.com/xraph/invoicing/invoice"
	"github.com/xraph/invoicing/store"
	"github.com/xraph/invoicing/transaction"
)

// Collection name constants.
const (
	colInvoices     = "invoicing_invoices"
	colTransactions = "invoicing_transactions"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store on a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database

	// ownsClient marks clients opened by this package, which Close must
	// disconnect.
	ownsClient bool
}

// New wraps an existing database handle. Closing the store does not
// disconnect the caller's client.
func New(db *mongo.Database) *Store {
	return &Store{client: db.Client(), db: db}
}

// Open connects to the given URI and selects dbName.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("invoicing/mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx) //nolint:errcheck // already failing
		return nil, fmt.Errorf("invoicing/mongo: ping: %w", err)
	}

	return &Store{
		client:     client,
		db:         client.Database(dbName),
		ownsClient: true,
	}, nil
}

// DB returns the underlying database handle for direct access.
func (s *Store) DB() *mongo.Database { return s.db }

// withTxn runs fn inside a session transaction so multi-document writes
// commit or abort together.
func (s *Store) withTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("invoicing/mongo: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

// ==================== Invoice Store ====================

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice, sale *transaction.Transaction) error {
	return s.withTxn(ctx, func(ctx context.Context) error {
		_, err := s.db.Collection(colInvoices).InsertOne(ctx, toInvoiceModel(inv))
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return invoicing.ErrDuplicateReference
			}
			return fmt.Errorf("invoicing/mongo: create invoice: %w", err)
		}

		if sale != nil {
			if _, err := s.db.Collection(colTransactions).InsertOne(ctx, toTransactionModel(sale)); err != nil {
				return fmt.Errorf("invoicing/mongo: create sale transaction: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	var m invoiceModel
	err := s.db.Collection(colInvoices).FindOne(ctx, bson.M{"_id": invID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, invoicing.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoicing/mongo: get invoice: %w", err)
	}
	return fromInvoiceModel(&m)
}

func (s *Store) GetInvoiceByReference(ctx context.Context, reference string) (*invoice.Invoice, error) {
	var m invoiceModel
	err := s.db.Collection(colInvoices).FindOne(ctx, bson.M{"reference_number": reference}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, invoicing.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoicing/mongo: get invoice by reference: %w", err)
	}
	return fromInvoiceModel(&m)
}

func (s *Store) ListInvoices(ctx context.Context, ownerID string, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	filter := bson.M{"owner_id": ownerID}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if opts.Limit > 0 {
		findOpts = findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts = findOpts.SetSkip(int64(opts.Offset))
	}

	cursor, err := s.db.Collection(colInvoices).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("invoicing/mongo: list invoices: %w", err)
	}
	var models []invoiceModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("invoicing/mongo: decode invoices: %w", err)
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
	m := toInvoiceModel(inv)

	res, err := s.db.Collection(colInvoices).UpdateOne(ctx,
		bson.M{"_id": m.ID, "version": inv.Version},
		bson.M{"$set": bson.M{
			"customer_name":  m.CustomerName,
			"customer_email": m.CustomerEmail,
			"total_cents":    m.TotalCents,
			"status":         m.Status,
			"line_items":     m.LineItems,
			"version":        inv.Version + 1,
			"updated_at":     m.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("invoicing/mongo: update invoice: %w", err)
	}
	if res.MatchedCount == 0 {
		return s.staleOrMissing(ctx, m.ID)
	}

	inv.Version++
	return nil
}

func (s *Store) SetInvoiceStatus(ctx context.Context, invID id.InvoiceID, expectedVersion int64, status invoice.Status, txn *transaction.Transaction) error {
	return s.withTxn(ctx, func(ctx context.Context) error {
		var m invoiceModel
		err := s.db.Collection(colInvoices).FindOneAndUpdate(ctx,
			bson.M{"_id": invID.String(), "version": expectedVersion},
			bson.M{
				"$set":         bson.M{"status": string(status)},
				"$inc":         bson.M{"version": 1},
				"$currentDate": bson.M{"updated_at": true},
			},
		).Decode(&m)
		if err != nil {
			if isNoDocuments(err) {
				return s.staleOrMissing(ctx, invID.String())
			}
			return fmt.Errorf("invoicing/mongo: set invoice status: %w", err)
		}

		if txn != nil {
			if _, err := s.db.Collection(colTransactions).InsertOne(ctx, toTransactionModel(txn)); err != nil {
				return fmt.Errorf("invoicing/mongo: record transaction: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) DeleteInvoice(ctx context.Context, invID id.InvoiceID) error {
	return s.withTxn(ctx, func(ctx context.Context) error {
		res, err := s.db.Collection(colInvoices).DeleteOne(ctx, bson.M{"_id": invID.String()})
		if err != nil {
			return fmt.Errorf("invoicing/mongo: delete invoice: %w", err)
		}
		if res.DeletedCount == 0 {
			return invoicing.ErrInvoiceNotFound
		}

		if _, err := s.db.Collection(colTransactions).DeleteMany(ctx, bson.M{"invoice_id": invID.String()}); err != nil {
			return fmt.Errorf("invoicing/mongo: cascade transactions: %w", err)
		}
		return nil
	})
}

// staleOrMissing disambiguates a zero-match conditional update: the invoice
// is either gone or its version moved on.
func (s *Store) staleOrMissing(ctx context.Context, invID string) error {
	count, err := s.db.Collection(colInvoices).CountDocuments(ctx, bson.M{"_id": invID})
	if err != nil {
		return fmt.Errorf("invoicing/mongo: check invoice: %w", err)
	}
	if count == 0 {
		return invoicing.ErrInvoiceNotFound
	}
	return invoicing.ErrVersionConflict
}

// ==================== Transaction Store ====================

func (s *Store) CreateTransaction(ctx context.Context, txn *transaction.Transaction) error {
	_, err := s.db.Collection(colTransactions).InsertOne(ctx, toTransactionModel(txn))
	if err != nil {
		return fmt.Errorf("invoicing/mongo: create transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, txnID id.TransactionID) (*transaction.Transaction, error) {
	var m transactionModel
	err := s.db.Collection(colTransactions).FindOne(ctx, bson.M{"_id": txnID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, invoicing.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("invoicing/mongo: get transaction: %w", err)
	}
	return fromTransactionModel(&m)
}

func (s *Store) ListTransactions(ctx context.Context, createdBy string, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	filter := bson.M{"created_by": createdBy}
	if !opts.InvoiceID.IsNil() {
		filter["invoice_id"] = opts.InvoiceID.String()
	}
	if opts.Type != "" {
		filter["transaction_type"] = string(opts.Type)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if opts.Limit > 0 {
		findOpts = findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts = findOpts.SetSkip(int64(opts.Offset))
	}

	cursor, err := s.db.Collection(colTransactions).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("invoicing/mongo: list transactions: %w", err)
	}
	var models []transactionModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("invoicing/mongo: decode transactions: %w", err)
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

// Migrate creates the collection indexes, including the unique reference
// number index that backs duplicate detection.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colInvoices: {
			{
				Keys:    bson.D{{Key: "reference_number", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		colTransactions: {
			{Keys: bson.D{{Key: "invoice_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_by", Value: 1}, {Key: "transaction_type", Value: 1}}},
		},
	}

	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("invoicing/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects clients opened by this package; caller-supplied clients
// stay connected.
func (s *Store) Close() error {
	if !s.ownsClient {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
