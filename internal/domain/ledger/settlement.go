package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Obligation is one outstanding amount a payment can be applied to: the unpaid
// commission of a booking, or an unpaid fine item.
type Obligation struct {
	ID        uuid.UUID
	Amount    int64
	CreatedAt time.Time
}

// SortObligations orders obligations FIFO by creation time. The ordering is
// made explicit here rather than relying on store ordering.
func SortObligations(obs []Obligation) {
	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].CreatedAt.Before(obs[j].CreatedAt)
	})
}

// Plan is the result of applying a payment against a host's obligations.
// Applied counts only fully covered obligations: an obligation is either
// untouched or settled whole, never tracked partially.
type Plan struct {
	SettledCommissionIDs []uuid.UUID
	SettledFineIDs       []uuid.UUID
	TotalBefore          int64
	Applied              int64
	Remaining            int64
}

// PlanSettlement walks commissions first, then fines, each FIFO by creation
// time. The running payment balance is consumed by every obligation in order;
// an obligation it cannot fully cover absorbs the rest without being settled.
func PlanSettlement(commissions, fines []Obligation, payment int64) Plan {
	SortObligations(commissions)
	SortObligations(fines)

	var plan Plan
	for _, o := range commissions {
		plan.TotalBefore += o.Amount
	}
	for _, o := range fines {
		plan.TotalBefore += o.Amount
	}

	left := payment
	for _, o := range commissions {
		if left <= 0 {
			break
		}
		if left >= o.Amount {
			plan.SettledCommissionIDs = append(plan.SettledCommissionIDs, o.ID)
			plan.Applied += o.Amount
		}
		left -= o.Amount
	}
	for _, o := range fines {
		if left <= 0 {
			break
		}
		if left >= o.Amount {
			plan.SettledFineIDs = append(plan.SettledFineIDs, o.ID)
			plan.Applied += o.Amount
		}
		left -= o.Amount
	}

	plan.Remaining = plan.TotalBefore - plan.Applied
	if plan.Remaining < 0 {
		plan.Remaining = 0
	}
	return plan
}

// AccessOutcome is the host-access change derived from one settlement call.
type AccessOutcome int

const (
	// AccessUnchanged leaves existing restrictions in place.
	AccessUnchanged AccessOutcome = iota
	// AccessLimited unlocks the dashboard while listings stay hidden.
	AccessLimited
	// AccessCleared removes every restriction.
	AccessCleared
)

// DeriveAccess computes the access outcome for a settlement. Access can only
// improve within a single call: full clearance when nothing remains due, a
// limited unlock when the payment covered at least half of what was owed.
func DeriveAccess(totalBefore, remaining, payment int64) AccessOutcome {
	if remaining <= 0 {
		return AccessCleared
	}
	minPartial := (totalBefore + 1) / 2
	if payment >= minPartial {
		return AccessLimited
	}
	return AccessUnchanged
}

// SettlementResult is returned to the caller of a payment application.
type SettlementResult struct {
	HostID        uuid.UUID
	AmountApplied int64
	RemainingDue  int64
	FullyCleared  bool
	PartialUnlock bool
}

// SettlementStore applies a payment against a host's obligations as a single
// serializable unit: two concurrent payments for one host must not observe the
// same before totals.
type SettlementStore interface {
	ApplyPayment(ctx context.Context, hostID uuid.UUID, amount int64) (*SettlementResult, error)
}
