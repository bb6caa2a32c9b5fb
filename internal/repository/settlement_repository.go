package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/stayloop/service-booking/internal/domain/booking"
	ledgerDomain "github.com/stayloop/service-booking/internal/domain/ledger"
)

// SettlementStoreImpl applies host payments against outstanding commissions
// and fines in a single transaction.
type SettlementStoreImpl struct {
	db *gorm.DB
}

// NewSettlementStore creates a new GORM-based settlement store.
func NewSettlementStore(db *gorm.DB) *SettlementStoreImpl {
	return &SettlementStoreImpl{db: db}
}

// lockHost serializes settlements per host within the transaction. Two
// concurrent payments for one host must not observe the same before totals.
func lockHost(tx *gorm.DB, hostID uuid.UUID) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "settle:"+hostID.String()).Error
}

// ApplyPayment loads the host's outstanding obligations, plans the FIFO
// application, persists every settled obligation and the derived access
// change, and synchronizes the dues ledger, all inside one transaction.
func (s *SettlementStoreImpl) ApplyPayment(ctx context.Context, hostID uuid.UUID, amount int64) (*ledgerDomain.SettlementResult, error) {
	var result *ledgerDomain.SettlementResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockHost(tx, hostID); err != nil {
			return err
		}

		commissions, err := loadCommissionObligations(tx, hostID)
		if err != nil {
			return err
		}
		fines, err := loadFineObligations(tx, hostID)
		if err != nil {
			return err
		}

		plan := ledgerDomain.PlanSettlement(commissions, fines, amount)
		now := time.Now().UTC()

		if len(plan.SettledCommissionIDs) > 0 {
			if err := tx.Model(&BookingModel{}).
				Where("id IN ?", plan.SettledCommissionIDs).
				Updates(map[string]interface{}{
					"commission_paid":    true,
					"commission_paid_at": now,
					"updated_at":         now,
				}).Error; err != nil {
				return err
			}
		}
		if len(plan.SettledFineIDs) > 0 {
			if err := tx.Model(&FineItemModel{}).
				Where("id IN ?", plan.SettledFineIDs).
				Updates(map[string]interface{}{
					"paid":       true,
					"paid_at":    now,
					"updated_at": now,
				}).Error; err != nil {
				return err
			}
		}

		outcome := ledgerDomain.DeriveAccess(plan.TotalBefore, plan.Remaining, amount)
		if err := applyAccessOutcome(tx, hostID, outcome, now); err != nil {
			return err
		}
		if err := syncLedgerEntries(tx, hostID, plan.Applied, plan.Remaining, now); err != nil {
			return err
		}

		result = &ledgerDomain.SettlementResult{
			HostID:        hostID,
			AmountApplied: plan.Applied,
			RemainingDue:  plan.Remaining,
			FullyCleared:  outcome == ledgerDomain.AccessCleared,
			PartialUnlock: outcome == ledgerDomain.AccessLimited,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// loadCommissionObligations returns the host's unpaid commission amounts from
// paid bookings in status confirmed or ended.
func loadCommissionObligations(tx *gorm.DB, hostID uuid.UUID) ([]ledgerDomain.Obligation, error) {
	var rows []struct {
		ID        uuid.UUID
		Amount    int64
		CreatedAt time.Time
	}
	if err := tx.Model(&BookingModel{}).
		Select("id, commission_amount as amount, created_at").
		Where("host_id = ?", hostID).
		Where("payment_status = ?", string(bookingDomain.PaymentPaid)).
		Where("status IN ?", []string{string(bookingDomain.StatusConfirmed), string(bookingDomain.StatusEnded)}).
		Where("commission_paid = false AND commission_amount > 0").
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	obs := make([]ledgerDomain.Obligation, len(rows))
	for i, row := range rows {
		obs[i] = ledgerDomain.Obligation{ID: row.ID, Amount: row.Amount, CreatedAt: row.CreatedAt}
	}
	return obs, nil
}

// loadFineObligations returns the host's unpaid fines.
func loadFineObligations(tx *gorm.DB, hostID uuid.UUID) ([]ledgerDomain.Obligation, error) {
	var rows []struct {
		ID        uuid.UUID
		Amount    int64
		CreatedAt time.Time
	}
	if err := tx.Model(&FineItemModel{}).
		Select("id, amount, created_at").
		Where("host_id = ? AND paid = false", hostID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	obs := make([]ledgerDomain.Obligation, len(rows))
	for i, row := range rows {
		obs[i] = ledgerDomain.Obligation{ID: row.ID, Amount: row.Amount, CreatedAt: row.CreatedAt}
	}
	return obs, nil
}

// applyAccessOutcome persists the derived access change on the host account.
// Access only improves here; blocking is the overdue sweep's job.
func applyAccessOutcome(tx *gorm.DB, hostID uuid.UUID, outcome ledgerDomain.AccessOutcome, now time.Time) error {
	switch outcome {
	case ledgerDomain.AccessCleared:
		return tx.Model(&HostAccountModel{}).
			Where("host_id = ?", hostID).
			Updates(map[string]interface{}{
				"is_blocked":     false,
				"blocked_at":     nil,
				"block_reason":   "",
				"blocked_until":  nil,
				"limited_access": false,
				"updated_at":     now,
			}).Error
	case ledgerDomain.AccessLimited:
		return tx.Model(&HostAccountModel{}).
			Where("host_id = ? AND is_blocked = true", hostID).
			Updates(map[string]interface{}{
				"limited_access": true,
				"updated_at":     now,
			}).Error
	default:
		return nil
	}
}

// syncLedgerEntries moves open dues entries to paid when nothing remains due,
// or to partial when the balance shrank but did not clear.
func syncLedgerEntries(tx *gorm.DB, hostID uuid.UUID, applied, remaining int64, now time.Time) error {
	if remaining <= 0 {
		return tx.Model(&DuesEntryModel{}).
			Where("host_id = ? AND status <> ?", hostID, string(ledgerDomain.EntryPaid)).
			Updates(map[string]interface{}{
				"status":     string(ledgerDomain.EntryPaid),
				"updated_at": now,
			}).Error
	}
	if applied <= 0 {
		return nil
	}
	return tx.Model(&DuesEntryModel{}).
		Where("host_id = ? AND status = ?", hostID, string(ledgerDomain.EntryUnpaid)).
		Updates(map[string]interface{}{
			"status":     string(ledgerDomain.EntryPartial),
			"updated_at": now,
		}).Error
}
