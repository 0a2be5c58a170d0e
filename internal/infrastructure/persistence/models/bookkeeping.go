package models

import (
	"time"

	"github.com/erp/wholesale/internal/domain/bookkeeping"
	"github.com/google/uuid"
)

// JournalEntryModel is the persistence model for an append-only journal entry.
type JournalEntryModel struct {
	ID                uuid.UUID             `gorm:"type:uuid;primary_key"`
	StoreID           uuid.UUID             `gorm:"type:uuid;not null;index"`
	AggregateType     string                `gorm:"type:varchar(50);not null;index:idx_journal_entry_aggregate,priority:1"`
	AggregateID       uuid.UUID             `gorm:"type:uuid;not null;index:idx_journal_entry_aggregate,priority:2"`
	EventType         bookkeeping.EventType `gorm:"type:varchar(50);not null"`
	SourceType        string                `gorm:"type:varchar(50);not null;index:idx_journal_entry_source,priority:1"`
	SourceID          uuid.UUID             `gorm:"type:uuid;not null;index:idx_journal_entry_source,priority:2"`
	IdempotencyKey    string                `gorm:"type:varchar(255);not null;uniqueIndex"`
	ReversalOfEntryID *uuid.UUID            `gorm:"type:uuid;index"`
	PostedAt          time.Time             `gorm:"not null"`
	CreatedAt         time.Time             `gorm:"not null"`
	Lines             []JournalLineModel    `gorm:"foreignKey:EntryID;references:ID"`
}

// TableName returns the table name for GORM
func (JournalEntryModel) TableName() string {
	return "journal_entries"
}

// ToDomain converts the persistence model to a domain JournalEntry.
func (m *JournalEntryModel) ToDomain() *bookkeeping.JournalEntry {
	entry := &bookkeeping.JournalEntry{
		ID:                m.ID,
		StoreID:           m.StoreID,
		AggregateType:     m.AggregateType,
		AggregateID:       m.AggregateID,
		EventType:         m.EventType,
		SourceType:        m.SourceType,
		SourceID:          m.SourceID,
		IdempotencyKey:    m.IdempotencyKey,
		ReversalOfEntryID: m.ReversalOfEntryID,
		PostedAt:          m.PostedAt,
		CreatedAt:         m.CreatedAt,
		Lines:             make([]bookkeeping.JournalLine, len(m.Lines)),
	}
	for i, l := range m.Lines {
		entry.Lines[i] = bookkeeping.JournalLine{
			ID:          l.ID,
			EntryID:     l.EntryID,
			AccountCode: l.AccountCode,
			AccountRole: l.AccountRole,
			PostingType: l.PostingType,
			AmountCents: l.AmountCents,
		}
	}
	return entry
}

// JournalEntryModelFromDomain creates a new persistence model from a domain JournalEntry.
func JournalEntryModelFromDomain(e *bookkeeping.JournalEntry) *JournalEntryModel {
	m := &JournalEntryModel{
		ID:                e.ID,
		StoreID:           e.StoreID,
		AggregateType:     e.AggregateType,
		AggregateID:       e.AggregateID,
		EventType:         e.EventType,
		SourceType:        e.SourceType,
		SourceID:          e.SourceID,
		IdempotencyKey:    e.IdempotencyKey,
		ReversalOfEntryID: e.ReversalOfEntryID,
		PostedAt:          e.PostedAt,
		CreatedAt:         e.CreatedAt,
		Lines:             make([]JournalLineModel, len(e.Lines)),
	}
	for i, l := range e.Lines {
		m.Lines[i] = JournalLineModel{
			ID:          l.ID,
			EntryID:     e.ID,
			LineNo:      i + 1,
			AccountCode: l.AccountCode,
			AccountRole: l.AccountRole,
			PostingType: l.PostingType,
			AmountCents: l.AmountCents,
		}
	}
	return m
}

// JournalLineModel is one debit or credit of a journal entry.
type JournalLineModel struct {
	ID          uuid.UUID               `gorm:"type:uuid;primary_key"`
	EntryID     uuid.UUID               `gorm:"type:uuid;not null;index"`
	LineNo      int                     `gorm:"not null"`
	AccountCode string                  `gorm:"type:varchar(50);not null;index"`
	AccountRole bookkeeping.AccountRole `gorm:"type:varchar(50);not null"`
	PostingType bookkeeping.PostingType `gorm:"type:varchar(10);not null"`
	AmountCents int64                   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (JournalLineModel) TableName() string {
	return "journal_lines"
}

// AccountMappingModel binds a store's account role to an account code.
// PaymentMethod is empty for the general mapping of a role.
type AccountMappingModel struct {
	ID            uuid.UUID               `gorm:"type:uuid;primary_key"`
	StoreID       uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_account_mapping_role,priority:1"`
	Role          bookkeeping.AccountRole `gorm:"type:varchar(50);not null;uniqueIndex:idx_account_mapping_role,priority:2"`
	PaymentMethod string                  `gorm:"type:varchar(30);not null;default:'';uniqueIndex:idx_account_mapping_role,priority:3"`
	AccountCode   string                  `gorm:"type:varchar(50);not null"`
	CreatedAt     time.Time               `gorm:"not null"`
	UpdatedAt     time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AccountMappingModel) TableName() string {
	return "account_mappings"
}

// ToDomain converts the persistence model to a domain AccountMapping.
func (m *AccountMappingModel) ToDomain() bookkeeping.AccountMapping {
	return bookkeeping.AccountMapping{
		ID:            m.ID,
		StoreID:       m.StoreID,
		Role:          m.Role,
		PaymentMethod: m.PaymentMethod,
		AccountCode:   m.AccountCode,
	}
}

// AccountMappingModelFromDomain creates a new persistence model from a domain AccountMapping.
func AccountMappingModelFromDomain(a *bookkeeping.AccountMapping) *AccountMappingModel {
	now := time.Now()
	return &AccountMappingModel{
		ID:            a.ID,
		StoreID:       a.StoreID,
		Role:          a.Role,
		PaymentMethod: a.PaymentMethod,
		AccountCode:   a.AccountCode,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// DocumentCounterModel holds the last value issued for one numbering scope.
type DocumentCounterModel struct {
	ScopeKey  string    `gorm:"type:varchar(200);primary_key"`
	Value     int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentCounterModel) TableName() string {
	return "document_counters"
}
