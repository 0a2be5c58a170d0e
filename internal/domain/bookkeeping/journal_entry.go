package bookkeeping

import (
	"fmt"
	"time"

	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/google/uuid"
)

// PostingType is the side of a journal line
type PostingType string

const (
	PostingDebit  PostingType = "debit"
	PostingCredit PostingType = "credit"
)

// Opposite returns the other side
func (p PostingType) Opposite() PostingType {
	if p == PostingDebit {
		return PostingCredit
	}
	return PostingDebit
}

// EventType identifies the business event an entry records
type EventType string

const (
	EventOrderOpened     EventType = "order_opened"
	EventPaymentReceived EventType = "payment_received"
	EventPaymentRefunded EventType = "payment_refunded"
	EventShipmentShipped EventType = "shipment_shipped"
	EventOrderCompleted  EventType = "order_completed"
	EventPaymentDeleted  EventType = "payment_deleted"
	EventOrderAdjusted   EventType = "order_adjusted"
)

// Source types and the aggregate type used for sale order entries
const (
	AggregateSaleOrder = "sale_order"
	SourceSaleOrder    = "sale_order"
	SourcePayment      = "sale_order_payment"
	SourceShipment     = "sale_order_shipment"
)

// DefaultVersionTag is appended to idempotency keys when none is configured
const DefaultVersionTag = "v1"

// IdempotencyKey builds {event}:{source_id}:{version_tag}
func IdempotencyKey(event EventType, sourceID uuid.UUID, versionTag string) string {
	if versionTag == "" {
		versionTag = DefaultVersionTag
	}
	return fmt.Sprintf("%s:%s:%s", event, sourceID, versionTag)
}

// ReversalKey builds payment_deleted:{payment_id}:{original_entry_id}:{version_tag}
func ReversalKey(paymentID, originalEntryID uuid.UUID, versionTag string) string {
	if versionTag == "" {
		versionTag = DefaultVersionTag
	}
	return fmt.Sprintf("%s:%s:%s:%s", EventPaymentDeleted, paymentID, originalEntryID, versionTag)
}

// AdjustmentKey builds order_adjusted:{order_id}:{version}:{version_tag}.
// version is the order version the edit was applied to.
func AdjustmentKey(orderID uuid.UUID, version int, versionTag string) string {
	if versionTag == "" {
		versionTag = DefaultVersionTag
	}
	return fmt.Sprintf("%s:%s:%d:%s", EventOrderAdjusted, orderID, version, versionTag)
}

// JournalLine is one side of a posting
type JournalLine struct {
	ID          uuid.UUID
	EntryID     uuid.UUID
	AccountCode string
	AccountRole AccountRole
	PostingType PostingType
	AmountCents int64
}

// EntrySource identifies what an entry was posted for
type EntrySource struct {
	StoreID       uuid.UUID
	AggregateType string
	AggregateID   uuid.UUID
	EventType     EventType
	SourceType    string
	SourceID      uuid.UUID
}

// JournalEntry is an append-only, balanced set of lines.
// Entries are never updated; corrections are reversal entries.
type JournalEntry struct {
	ID                uuid.UUID
	StoreID           uuid.UUID
	AggregateType     string
	AggregateID       uuid.UUID
	EventType         EventType
	SourceType        string
	SourceID          uuid.UUID
	IdempotencyKey    string
	ReversalOfEntryID *uuid.UUID
	PostedAt          time.Time
	CreatedAt         time.Time
	Lines             []JournalLine
}

// NewJournalEntry creates a balanced entry. Zero-amount lines are dropped.
func NewJournalEntry(src EntrySource, idempotencyKey string, lines []JournalLine, postedAt time.Time) (*JournalEntry, error) {
	if idempotencyKey == "" {
		return nil, shared.NewValidationError("idempotency_key", "REQUIRED", "Idempotency key is required")
	}
	entry := &JournalEntry{
		ID:             uuid.New(),
		StoreID:        src.StoreID,
		AggregateType:  src.AggregateType,
		AggregateID:    src.AggregateID,
		EventType:      src.EventType,
		SourceType:     src.SourceType,
		SourceID:       src.SourceID,
		IdempotencyKey: idempotencyKey,
		PostedAt:       postedAt,
		CreatedAt:      postedAt,
	}
	for _, line := range lines {
		if line.AmountCents == 0 {
			continue
		}
		line.ID = uuid.New()
		line.EntryID = entry.ID
		entry.Lines = append(entry.Lines, line)
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return entry, nil
}

// Validate checks the entry has lines, non-negative amounts and balances
func (e *JournalEntry) Validate() error {
	if len(e.Lines) == 0 {
		return shared.NewValidationError("lines", "EMPTY_ENTRY", "Journal entry needs at least one line")
	}
	for idx, line := range e.Lines {
		if line.AmountCents < 0 {
			return shared.NewValidationError(fmt.Sprintf("lines[%d].amount_cents", idx), "NEGATIVE_AMOUNT", "Line amount cannot be negative")
		}
		if line.AccountCode == "" {
			return shared.NewValidationError(fmt.Sprintf("lines[%d].account_code", idx), "REQUIRED", "Line account code is required")
		}
		if line.PostingType != PostingDebit && line.PostingType != PostingCredit {
			return shared.NewValidationError(fmt.Sprintf("lines[%d].posting_type", idx), "INVALID_POSTING_TYPE",
				fmt.Sprintf("Unknown posting type %q", line.PostingType))
		}
	}
	if debit, credit := e.DebitCents(), e.CreditCents(); debit != credit {
		return shared.NewValidationError("lines", "UNBALANCED_ENTRY",
			fmt.Sprintf("Entry is unbalanced: debit=%d credit=%d", debit, credit))
	}
	return nil
}

// DebitCents sums debit lines
func (e *JournalEntry) DebitCents() int64 {
	return e.sum(PostingDebit)
}

// CreditCents sums credit lines
func (e *JournalEntry) CreditCents() int64 {
	return e.sum(PostingCredit)
}

func (e *JournalEntry) sum(side PostingType) int64 {
	var total int64
	for _, line := range e.Lines {
		if line.PostingType == side {
			total += line.AmountCents
		}
	}
	return total
}

// IsReversal reports whether the entry reverses another
func (e *JournalEntry) IsReversal() bool {
	return e.ReversalOfEntryID != nil
}

// Reverse builds the entry that undoes e by swapping each line's side
func (e *JournalEntry) Reverse(idempotencyKey string, postedAt time.Time) (*JournalEntry, error) {
	if e.IsReversal() {
		return nil, shared.NewDomainError("INVALID_REVERSAL", "A reversal entry cannot itself be reversed")
	}
	lines := make([]JournalLine, len(e.Lines))
	for idx, line := range e.Lines {
		lines[idx] = JournalLine{
			AccountCode: line.AccountCode,
			AccountRole: line.AccountRole,
			PostingType: line.PostingType.Opposite(),
			AmountCents: line.AmountCents,
		}
	}
	reversal, err := NewJournalEntry(EntrySource{
		StoreID:       e.StoreID,
		AggregateType: e.AggregateType,
		AggregateID:   e.AggregateID,
		EventType:     EventPaymentDeleted,
		SourceType:    e.SourceType,
		SourceID:      e.SourceID,
	}, idempotencyKey, lines, postedAt)
	if err != nil {
		return nil, err
	}
	originalID := e.ID
	reversal.ReversalOfEntryID = &originalID
	return reversal, nil
}

// UnreversedEntries filters out reversals and entries that have been reversed
func UnreversedEntries(entries []*JournalEntry) []*JournalEntry {
	reversed := make(map[uuid.UUID]bool)
	for _, e := range entries {
		if e.IsReversal() {
			reversed[*e.ReversalOfEntryID] = true
		}
	}
	out := make([]*JournalEntry, 0, len(entries))
	for _, e := range entries {
		if !e.IsReversal() && !reversed[e.ID] {
			out = append(out, e)
		}
	}
	return out
}

// EffectiveEvents maps each entry id to the event it accounts for.
// A reversal counts against the event of the entry it reverses.
func EffectiveEvents(entries []*JournalEntry) map[uuid.UUID]EventType {
	byID := make(map[uuid.UUID]EventType, len(entries))
	for _, e := range entries {
		byID[e.ID] = e.EventType
	}
	out := make(map[uuid.UUID]EventType, len(entries))
	for _, e := range entries {
		if e.IsReversal() {
			if original, ok := byID[*e.ReversalOfEntryID]; ok {
				out[e.ID] = original
				continue
			}
		}
		out[e.ID] = e.EventType
	}
	return out
}

// NetRoleAmount sums side on role across entries recorded for event,
// less the opposite side booked by their reversals.
func NetRoleAmount(entries []*JournalEntry, event EventType, role AccountRole, side PostingType) int64 {
	events := EffectiveEvents(entries)
	var net int64
	for _, e := range entries {
		if events[e.ID] != event {
			continue
		}
		for _, line := range e.Lines {
			if line.AccountRole != role {
				continue
			}
			switch {
			case !e.IsReversal() && line.PostingType == side:
				net += line.AmountCents
			case e.IsReversal() && line.PostingType == side.Opposite():
				net -= line.AmountCents
			}
		}
	}
	return net
}

// BookedReceivableCents is the order total booked to receivable: the
// opening debit plus the net of every adjustment.
func BookedReceivableCents(entries []*JournalEntry) int64 {
	return NetRoleAmount(entries, EventOrderOpened, RoleAccountsReceivable, PostingDebit) +
		NetRoleAmount(entries, EventOrderAdjusted, RoleAccountsReceivable, PostingDebit) -
		NetRoleAmount(entries, EventOrderAdjusted, RoleAccountsReceivable, PostingCredit)
}

// RoleTotals sums debits and credits per role across entries
func RoleTotals(entries []*JournalEntry) map[AccountRole]Balance {
	out := make(map[AccountRole]Balance)
	for _, e := range entries {
		for _, line := range e.Lines {
			b := out[line.AccountRole]
			if line.PostingType == PostingDebit {
				b.DebitCents += line.AmountCents
			} else {
				b.CreditCents += line.AmountCents
			}
			out[line.AccountRole] = b
		}
	}
	return out
}

// Balance holds debit and credit totals
type Balance struct {
	DebitCents  int64
	CreditCents int64
}

// IsBalanced reports debit == credit
func (b Balance) IsBalanced() bool {
	return b.DebitCents == b.CreditCents
}
