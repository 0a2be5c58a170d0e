package trade

import (
	"context"

	appbk "github.com/erp/wholesale/internal/application/bookkeeping"
	"github.com/erp/wholesale/internal/domain/trade"
)

// TransactionScope provides transactional access to the sale order repositories.
// All repository operations inside Execute share one database transaction and
// are committed or rolled back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides every repository a sale order unit of
// work touches. Journal postings made through Journal() commit or roll back
// with the business rows.
type TransactionalRepositories interface {
	appbk.TransactionalRepositories
	// Invoices returns the invoice repository scoped to the current transaction
	Invoices() trade.InvoiceRepository
	// Shipments returns the shipment repository scoped to the current transaction
	Shipments() trade.ShipmentRepository
}
