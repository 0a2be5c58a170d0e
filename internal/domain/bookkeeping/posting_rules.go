package bookkeeping

import (
	"fmt"

	"github.com/erp/wholesale/internal/domain/shared"
)

// PostingFacts is everything the posting rules read for one event
type PostingFacts struct {
	Source EntrySource

	// AmountCents is the signed payment amount for payment events
	AmountCents   int64
	PaymentMethod string
	// OrderCompleted selects the refund debit account
	OrderCompleted bool

	TotalCents    int64
	ShippingCents int64
	DiscountCents int64

	// ShippedSubtotalCents is the cumulative subtotal of every Shipped
	// shipment, the one being posted included.
	ShippedSubtotalCents int64
	// RefundedToDeferredCents is the net of refunds already debited to
	// deferred revenue.
	RefundedToDeferredCents int64
	// RecognizedByShipmentsCents is revenue already moved out of deferred
	// revenue by earlier shipment entries.
	RecognizedByShipmentsCents int64

	RefundsBeforeCompletionCents int64

	// OrderVersion and AdjustmentCents describe an edit to an opened
	// order. AdjustmentCents is the signed change in total.
	OrderVersion    int
	AdjustmentCents int64
}

// LinePlan is a journal line before its account code is resolved
type LinePlan struct {
	Role        AccountRole
	PostingType PostingType
	AmountCents int64
}

type postingRule struct {
	debit  func(PostingFacts) AccountRole
	credit func(PostingFacts) AccountRole
	amount func(PostingFacts) int64
}

func role(r AccountRole) func(PostingFacts) AccountRole {
	return func(PostingFacts) AccountRole { return r }
}

// postingRules holds the two-line postings. Order completion splits into
// several lines and is planned by completionPlan.
var postingRules = map[EventType]postingRule{
	EventOrderOpened: {
		debit:  role(RoleAccountsReceivable),
		credit: role(RoleDeferredRevenue),
		amount: func(f PostingFacts) int64 { return max(0, f.TotalCents) },
	},
	EventPaymentReceived: {
		debit:  role(RoleMerchant),
		credit: role(RoleAccountsReceivable),
		amount: func(f PostingFacts) int64 { return abs(f.AmountCents) },
	},
	EventPaymentRefunded: {
		debit: func(f PostingFacts) AccountRole {
			if f.OrderCompleted {
				return RoleRefund
			}
			return RoleDeferredRevenue
		},
		credit: role(RoleMerchant),
		amount: func(f PostingFacts) int64 { return abs(f.AmountCents) },
	},
	EventShipmentShipped: {
		debit:  role(RoleDeferredRevenue),
		credit: role(RoleWholesaleRevenue),
		amount: ShipmentRecognitionCents,
	},
	EventOrderAdjusted: {
		debit:  adjustmentSide(RoleAccountsReceivable, RoleDeferredRevenue),
		credit: adjustmentSide(RoleDeferredRevenue, RoleAccountsReceivable),
		amount: func(f PostingFacts) int64 { return abs(f.AdjustmentCents) },
	},
}

// adjustmentSide picks up for a raised total and down for a lowered one
func adjustmentSide(up, down AccountRole) func(PostingFacts) AccountRole {
	return func(f PostingFacts) AccountRole {
		if f.AdjustmentCents < 0 {
			return down
		}
		return up
	}
}

// PlanLines returns the lines to post for facts. Zero-amount lines are
// omitted, so an empty plan means nothing is posted.
func PlanLines(f PostingFacts) ([]LinePlan, error) {
	if f.Source.EventType == EventOrderCompleted {
		return compact(completionPlan(f)), nil
	}
	rule, ok := postingRules[f.Source.EventType]
	if !ok {
		return nil, shared.NewDomainError("UNKNOWN_EVENT", fmt.Sprintf("No posting rule for event %s", f.Source.EventType))
	}
	amount := rule.amount(f)
	return compact([]LinePlan{
		{Role: rule.debit(f), PostingType: PostingDebit, AmountCents: amount},
		{Role: rule.credit(f), PostingType: PostingCredit, AmountCents: amount},
	}), nil
}

// ShipmentRecognitionCents is the revenue a shipment moves out of deferred
// revenue. Cumulative shipped subtotal, less refunds, is capped at what
// remains deferrable; earlier shipment recognition is then subtracted so
// refunds only count once.
func ShipmentRecognitionCents(f PostingFacts) int64 {
	ceiling := max(0, f.TotalCents-f.RefundedToDeferredCents)
	cumulative := min(max(f.ShippedSubtotalCents-f.RefundedToDeferredCents, 0), ceiling)
	return max(0, cumulative-f.RecognizedByShipmentsCents)
}

// RecognizedRevenueCents is the revenue an order recognizes by completion
func RecognizedRevenueCents(totalCents, refundsBeforeCompletionCents int64) int64 {
	return max(0, totalCents-refundsBeforeCompletionCents)
}

// completionPlan moves the remaining deferred revenue to revenue.
// Without prior refunds a discount is booked gross, or shipping gets its
// own revenue line; with refunds a single revenue credit is used.
func completionPlan(f PostingFacts) []LinePlan {
	recognized := RecognizedRevenueCents(f.TotalCents, f.RefundsBeforeCompletionCents)
	remainder := max(0, recognized-f.RecognizedByShipmentsCents)
	plan := []LinePlan{{Role: RoleDeferredRevenue, PostingType: PostingDebit, AmountCents: remainder}}

	switch {
	case f.RefundsBeforeCompletionCents > 0:
		plan = append(plan, LinePlan{Role: RoleWholesaleRevenue, PostingType: PostingCredit, AmountCents: remainder})
	case f.DiscountCents > 0:
		plan = append(plan,
			LinePlan{Role: RoleDiscount, PostingType: PostingDebit, AmountCents: f.DiscountCents},
			LinePlan{Role: RoleWholesaleRevenue, PostingType: PostingCredit, AmountCents: remainder + f.DiscountCents},
		)
	case f.ShippingCents > 0:
		shipping := min(f.ShippingCents, remainder)
		plan = append(plan,
			LinePlan{Role: RoleWholesaleRevenue, PostingType: PostingCredit, AmountCents: remainder - shipping},
			LinePlan{Role: RoleShippingRevenue, PostingType: PostingCredit, AmountCents: shipping},
		)
	default:
		plan = append(plan, LinePlan{Role: RoleWholesaleRevenue, PostingType: PostingCredit, AmountCents: remainder})
	}
	return plan
}

func compact(plan []LinePlan) []LinePlan {
	out := plan[:0]
	for _, line := range plan {
		if line.AmountCents != 0 {
			out = append(out, line)
		}
	}
	return out
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
