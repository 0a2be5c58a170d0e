package persistence

import (
	"context"

	appbk "github.com/erp/wholesale/internal/application/bookkeeping"
	apptrade "github.com/erp/wholesale/internal/application/trade"
	"github.com/erp/wholesale/internal/domain/bookkeeping"
	"github.com/erp/wholesale/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTradeTransactionScope implements the sale order TransactionScope using GORM transactions.
type GormTradeTransactionScope struct {
	db *gorm.DB
}

// NewGormTradeTransactionScope creates a new GormTradeTransactionScope.
func NewGormTradeTransactionScope(db *gorm.DB) *GormTradeTransactionScope {
	return &GormTradeTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTradeTransactionScope) Execute(ctx context.Context, fn func(repos apptrade.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// GormLedgerTransactionScope implements the bookkeeping TransactionScope.
type GormLedgerTransactionScope struct {
	db *gorm.DB
}

// NewGormLedgerTransactionScope creates a new GormLedgerTransactionScope.
func NewGormLedgerTransactionScope(db *gorm.DB) *GormLedgerTransactionScope {
	return &GormLedgerTransactionScope{db: db}
}

// Execute runs fn within one database transaction.
func (s *GormLedgerTransactionScope) Execute(ctx context.Context, fn func(repos appbk.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// NewGormRepositories returns repositories bound to db without a transaction,
// for the unlocked reads services make before opening one.
func NewGormRepositories(db *gorm.DB) apptrade.TransactionalRepositories {
	return &gormTransactionalRepositories{tx: db}
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// SaleOrders returns the sale order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) SaleOrders() trade.SaleOrderRepository {
	return NewGormSaleOrderRepository(r.tx)
}

// Invoices returns the invoice repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Invoices() trade.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// Shipments returns the shipment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Shipments() trade.ShipmentRepository {
	return NewGormShipmentRepository(r.tx)
}

// Payments returns the payment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Payments() trade.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// Journal returns the journal repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Journal() bookkeeping.JournalRepository {
	return NewGormJournalRepository(r.tx)
}

// Locker returns a row locker bound to the current transaction.
func (r *gormTransactionalRepositories) Locker() trade.Locker {
	return NewGormLocker(r.tx)
}

var (
	_ apptrade.TransactionScope          = (*GormTradeTransactionScope)(nil)
	_ appbk.TransactionScope             = (*GormLedgerTransactionScope)(nil)
	_ apptrade.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
