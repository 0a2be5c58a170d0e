package bookkeeping

import (
	"context"
	"fmt"
	"time"
)

// EntryFactory turns posting facts into journal entries
type EntryFactory struct {
	chart      ChartOfAccounts
	versionTag string
}

// NewEntryFactory creates an entry factory resolving accounts through chart
func NewEntryFactory(chart ChartOfAccounts, versionTag string) *EntryFactory {
	if versionTag == "" {
		versionTag = DefaultVersionTag
	}
	return &EntryFactory{chart: chart, versionTag: versionTag}
}

// VersionTag returns the tag appended to idempotency keys
func (f *EntryFactory) VersionTag() string {
	return f.versionTag
}

// Key returns the idempotency key for facts
func (f *EntryFactory) Key(facts PostingFacts) string {
	if facts.Source.EventType == EventOrderAdjusted {
		return AdjustmentKey(facts.Source.SourceID, facts.OrderVersion, f.versionTag)
	}
	return IdempotencyKey(facts.Source.EventType, facts.Source.SourceID, f.versionTag)
}

// Build plans and resolves the entry for facts. It returns nil when every
// line would be zero.
func (f *EntryFactory) Build(ctx context.Context, facts PostingFacts, postedAt time.Time) (*JournalEntry, error) {
	plan, err := PlanLines(facts)
	if err != nil {
		return nil, err
	}
	if len(plan) == 0 {
		return nil, nil
	}

	lines := make([]JournalLine, 0, len(plan))
	for _, p := range plan {
		code, err := f.resolve(ctx, facts, p.Role)
		if err != nil {
			return nil, err
		}
		lines = append(lines, JournalLine{
			AccountCode: code,
			AccountRole: p.Role,
			PostingType: p.PostingType,
			AmountCents: p.AmountCents,
		})
	}
	entry, err := NewJournalEntry(facts.Source, f.Key(facts), lines, postedAt)
	if err != nil {
		return nil, fmt.Errorf("build %s entry: %w", facts.Source.EventType, err)
	}
	return entry, nil
}

func (f *EntryFactory) resolve(ctx context.Context, facts PostingFacts, r AccountRole) (string, error) {
	if r == RoleMerchant {
		return f.chart.ResolveMerchantAccount(ctx, facts.Source.StoreID, facts.PaymentMethod)
	}
	return f.chart.ResolveAccount(ctx, facts.Source.StoreID, r)
}
