package bookkeeping

import (
	"encoding/json"
	"fmt"
	"time"
)

// Issue names reported by Audit
const (
	IssueReceivableUnbalanced = "receivable_unbalanced"
	IssueDeferredUnbalanced   = "deferred_revenue_unbalanced"
	IssueRevenueMismatch      = "revenue_mismatch"
	IssueMerchantMismatch     = "merchant_mismatch"
)

// AuditFacts is the order-side truth the ledger is checked against
type AuditFacts struct {
	TotalCents                   int64
	RefundsBeforeCompletionCents int64
	// PositivePaymentsCents sums positive, non-deleted payments
	PositivePaymentsCents int64
}

// AuditVerdict is the outcome of an audit. Findings are data, not errors.
type AuditVerdict struct {
	Issues    []string
	CheckedAt time.Time
}

// Exception reports whether any issue was found
func (v AuditVerdict) Exception() bool {
	return len(v.Issues) > 0
}

type auditPayload struct {
	Issues    []string  `json:"issues"`
	CheckedAt time.Time `json:"checked_at"`
}

// Payload renders {issues, checked_at}, or nil when the ledger is clean
func (v AuditVerdict) Payload() (json.RawMessage, error) {
	if !v.Exception() {
		return nil, nil
	}
	return json.Marshal(auditPayload{Issues: v.Issues, CheckedAt: v.CheckedAt.UTC()})
}

// Audit checks an order's journal entries for internal consistency
func Audit(entries []*JournalEntry, facts AuditFacts, checkedAt time.Time) AuditVerdict {
	totals := RoleTotals(entries)
	issues := []string{}

	if ar := totals[RoleAccountsReceivable]; !ar.IsBalanced() {
		issues = append(issues, fmt.Sprintf("%s: debit=%d credit=%d", IssueReceivableUnbalanced, ar.DebitCents, ar.CreditCents))
	}
	if deferred := totals[RoleDeferredRevenue]; !deferred.IsBalanced() {
		issues = append(issues, fmt.Sprintf("%s: debit=%d credit=%d", IssueDeferredUnbalanced, deferred.DebitCents, deferred.CreditCents))
	}

	wholesale := totals[RoleWholesaleRevenue]
	netRevenue := wholesale.CreditCents + totals[RoleShippingRevenue].CreditCents -
		wholesale.DebitCents - totals[RoleDiscount].DebitCents
	recognized := RecognizedRevenueCents(facts.TotalCents, facts.RefundsBeforeCompletionCents)
	if netRevenue != recognized {
		issues = append(issues, fmt.Sprintf("%s: revenue=%d expected=%d", IssueRevenueMismatch, netRevenue, recognized))
	}

	merchant := merchantNetDebits(entries)
	if merchant != facts.PositivePaymentsCents {
		issues = append(issues, fmt.Sprintf("%s: merchant=%d payments=%d", IssueMerchantMismatch, merchant, facts.PositivePaymentsCents))
	}

	return AuditVerdict{Issues: issues, CheckedAt: checkedAt}
}

// merchantNetDebits counts merchant activity on received payments and
// their reversals only; refunds credit the merchant separately.
func merchantNetDebits(entries []*JournalEntry) int64 {
	events := EffectiveEvents(entries)
	var net int64
	for _, e := range entries {
		if events[e.ID] != EventPaymentReceived {
			continue
		}
		for _, line := range e.Lines {
			if line.AccountRole != RoleMerchant {
				continue
			}
			if line.PostingType == PostingDebit {
				net += line.AmountCents
			} else {
				net -= line.AmountCents
			}
		}
	}
	return net
}
