package bookkeeping

import (
	"context"

	"github.com/erp/wholesale/internal/domain/bookkeeping"
	"github.com/erp/wholesale/internal/domain/trade"
)

// TransactionScope runs ledger work atomically under row locks
type TransactionScope interface {
	// Execute runs fn within one database transaction; an error rolls it back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories are the repositories an audit reads and
// writes, all sharing the enclosing transaction.
type TransactionalRepositories interface {
	SaleOrders() trade.SaleOrderRepository
	Payments() trade.PaymentRepository
	Journal() bookkeeping.JournalRepository
	Locker() trade.Locker
}
