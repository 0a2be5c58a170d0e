package bookkeeping

import (
	"context"

	"github.com/google/uuid"
)

// JournalRepository is the append-only store of journal entries
type JournalRepository interface {
	// FindByIdempotencyKey returns shared.ErrNotFound when no entry has key
	FindByIdempotencyKey(ctx context.Context, key string) (*JournalEntry, error)

	// FindByAggregate loads every entry of an aggregate with its lines, by posting time
	FindByAggregate(ctx context.Context, aggregateType string, aggregateID uuid.UUID) ([]*JournalEntry, error)

	// FindBySource loads entries recorded for one source, reversals included
	FindBySource(ctx context.Context, sourceType string, sourceID uuid.UUID) ([]*JournalEntry, error)

	// Create inserts an entry with its lines. A duplicate idempotency key
	// returns shared.ErrUniqueViolation and leaves the caller's transaction usable.
	Create(ctx context.Context, entry *JournalEntry) error
}

// AccountMappingRepository manages a store's chart of accounts
type AccountMappingRepository interface {
	FindByStore(ctx context.Context, storeID uuid.UUID) ([]AccountMapping, error)
	Save(ctx context.Context, mapping *AccountMapping) error
}
