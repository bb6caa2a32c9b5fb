package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stayloop/service-booking/internal/config"
	"github.com/stayloop/service-booking/internal/domain"
	bookingDomain "github.com/stayloop/service-booking/internal/domain/booking"
	hostDomain "github.com/stayloop/service-booking/internal/domain/host"
	ledgerDomain "github.com/stayloop/service-booking/internal/domain/ledger"
	"github.com/stayloop/service-booking/internal/events"
	"github.com/stayloop/service-booking/internal/platform/auth"
)

// SettlePaymentRequest is the DTO for applying a host payment to dues.
type SettlePaymentRequest struct {
	HostID uuid.UUID `json:"host_id" binding:"required"`
	Amount int64     `json:"amount" binding:"required,gt=0"`
}

// SettlementDTO is the API response DTO for a settlement application.
type SettlementDTO struct {
	HostID        uuid.UUID `json:"host_id"`
	AmountApplied int64     `json:"amount_applied"`
	RemainingDue  int64     `json:"remaining_due"`
	FullyCleared  bool      `json:"fully_cleared"`
	PartialUnlock bool      `json:"partial_unlock"`
}

// CreateFineRequest is the DTO for an administrative fine.
type CreateFineRequest struct {
	HostID  uuid.UUID  `json:"host_id" binding:"required"`
	Reason  string     `json:"reason" binding:"required"`
	Amount  int64      `json:"amount" binding:"required,gt=0"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

// DuesEntryDTO is the API response DTO for one dues ledger entry.
type DuesEntryDTO struct {
	ID            uuid.UUID  `json:"id"`
	Kind          string     `json:"kind"`
	Period        string     `json:"period"`
	Amount        int64      `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	DueDate       time.Time  `json:"due_date"`
	GraceEndDate  time.Time  `json:"grace_end_date"`
	ReminderStage int        `json:"reminder_stage"`
	LastReminder  *time.Time `json:"last_reminder_at,omitempty"`
}

// HostDuesDTO is the aggregate dues view for a host.
type HostDuesDTO struct {
	HostID        uuid.UUID      `json:"host_id"`
	TotalDue      int64          `json:"total_due"`
	Blocked       bool           `json:"blocked"`
	LimitedAccess bool           `json:"limited_access"`
	Entries       []DuesEntryDTO `json:"entries"`
}

// SettlementService orchestrates dues aggregation, reminders, enforcement and
// payment settlement.
type SettlementService struct {
	store    ledgerDomain.SettlementStore
	entries  ledgerDomain.Repository
	hosts    hostDomain.Repository
	bookings bookingDomain.Repository
	notifier events.Notifier
	cfg      *config.ServiceConfig
	logger   *zap.Logger
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(
	store ledgerDomain.SettlementStore,
	entries ledgerDomain.Repository,
	hosts hostDomain.Repository,
	bookings bookingDomain.Repository,
	notifier events.Notifier,
	cfg *config.ServiceConfig,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		store:    store,
		entries:  entries,
		hosts:    hosts,
		bookings: bookings,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// SettlePayment applies a payment against the host's outstanding commissions
// and fines, FIFO, and fans out the resulting access-change notifications.
func (s *SettlementService) SettlePayment(ctx context.Context, req SettlePaymentRequest) (*SettlementDTO, error) {
	if req.Amount <= 0 {
		return nil, domain.NewInvalidAmountError("payment amount must be positive")
	}

	s.logger.Info("settling host payment",
		zap.String("host_id", req.HostID.String()),
		zap.Int64("amount", req.Amount),
	)

	account, err := s.hosts.FindAccount(ctx, req.HostID)
	if err != nil {
		return nil, err
	}
	wasBlocked := account.IsBlocked()

	result, err := s.store.ApplyPayment(ctx, req.HostID, req.Amount)
	if err != nil {
		s.logger.Error("failed to apply settlement", zap.Error(err))
		return nil, err
	}

	switch {
	case result.FullyCleared:
		s.notifier.Notify(ctx, events.NotifyDuesCleared, req.HostID, map[string]interface{}{
			"amount_applied": result.AmountApplied,
		})
		if wasBlocked {
			s.notifier.Notify(ctx, events.NotifyAccountReactivated, req.HostID, nil)
		}
	case result.PartialUnlock:
		s.notifier.Notify(ctx, events.NotifyDuesPartial, req.HostID, map[string]interface{}{
			"amount_applied": result.AmountApplied,
			"remaining_due":  result.RemainingDue,
		})
	}

	return &SettlementDTO{
		HostID:        result.HostID,
		AmountApplied: result.AmountApplied,
		RemainingDue:  result.RemainingDue,
		FullyCleared:  result.FullyCleared,
		PartialUnlock: result.PartialUnlock,
	}, nil
}

// HandleHostPayment reacts to a payment-collaborator event carrying a host's
// dues payment.
func (s *SettlementService) HandleHostPayment(ctx context.Context, event events.HostPaymentReceivedEvent) error {
	_, err := s.SettlePayment(ctx, SettlePaymentRequest{HostID: event.HostID, Amount: event.Amount})
	return err
}

// GetHostDues returns the open dues ledger of a host. Hosts see only their
// own ledger.
func (s *SettlementService) GetHostDues(ctx context.Context, actor auth.Actor, hostID uuid.UUID) (*HostDuesDTO, error) {
	if !actor.IsAdmin() && actor.ID != hostID {
		return nil, domain.NewUnauthorizedError("cannot view another host's dues")
	}

	account, err := s.hosts.FindAccount(ctx, hostID)
	if err != nil {
		return nil, err
	}
	open, err := s.entries.ListOpenByHost(ctx, hostID)
	if err != nil {
		return nil, err
	}

	dto := &HostDuesDTO{
		HostID:        hostID,
		Blocked:       account.IsBlocked(),
		LimitedAccess: account.LimitedAccess(),
		Entries:       make([]DuesEntryDTO, len(open)),
	}
	for i, e := range open {
		dto.TotalDue += e.Amount()
		dto.Entries[i] = toDuesEntryDTO(e)
	}
	return dto, nil
}

// CreateFine records an administrative fine against a host and mirrors it into
// the dues ledger.
func (s *SettlementService) CreateFine(ctx context.Context, req CreateFineRequest) (*DuesEntryDTO, error) {
	s.logger.Info("creating fine",
		zap.String("host_id", req.HostID.String()),
		zap.Int64("amount", req.Amount),
		zap.String("reason", req.Reason),
	)

	fine, err := hostDomain.NewFineItem(req.HostID, req.Reason, req.Amount, req.DueDate)
	if err != nil {
		return nil, err
	}
	if err := s.hosts.AddFine(ctx, fine); err != nil {
		return nil, err
	}

	entry, err := s.refreshFineLedger(ctx, req.HostID)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, events.NotifyCommissionDue, req.HostID, map[string]interface{}{
		"kind":     string(ledgerDomain.KindFine),
		"amount":   req.Amount,
		"reason":   req.Reason,
		"currency": s.cfg.Currency,
	})

	dto := toDuesEntryDTO(entry)
	return &dto, nil
}

// RunMonthlyAggregation rolls every host's unpaid commission for the month of
// periodStart into one dues entry per host. Idempotent: re-running refreshes
// amounts instead of duplicating entries. Returns the number of hosts billed.
func (s *SettlementService) RunMonthlyAggregation(ctx context.Context, periodStart time.Time) (int, error) {
	from := time.Date(periodStart.Year(), periodStart.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	period := from.Format("2006-01")

	owed, err := s.bookings.CommissionOwedByHost(ctx, from, to)
	if err != nil {
		return 0, err
	}

	billed := 0
	for hostID, amount := range owed {
		entry, err := ledgerDomain.NewCommissionEntry(hostID, period, amount, s.cfg.Currency, to, s.cfg.GraceDays)
		if err != nil {
			s.logger.Warn("skipping commission entry",
				zap.String("host_id", hostID.String()),
				zap.Error(err),
			)
			continue
		}
		if err := s.entries.UpsertEntry(ctx, entry); err != nil {
			s.logger.Error("failed to upsert commission entry",
				zap.String("host_id", hostID.String()),
				zap.Error(err),
			)
			continue
		}
		billed++

		s.notifier.Notify(ctx, events.NotifyCommissionDue, hostID, map[string]interface{}{
			"period":   period,
			"amount":   amount,
			"currency": s.cfg.Currency,
			"due_date": to,
		})
	}

	s.logger.Info("monthly aggregation complete",
		zap.String("period", period),
		zap.Int("hosts_billed", billed),
	)
	return billed, nil
}

// PreviousMonth returns the first day of the calendar month before now.
// AddDate(0, -1, 0) on a month-end day normalizes forward into the current
// month, so the month is stepped back from the truncated first instead.
func PreviousMonth(now time.Time) time.Time {
	y, m, _ := now.UTC().Date()
	return time.Date(y, m-1, 1, 0, 0, 0, 0, time.UTC)
}

// RunReminderSweep sends at most one reminder per day for every open entry
// past its due date and still within grace. Returns reminders sent.
func (s *SettlementService) RunReminderSweep(ctx context.Context, now time.Time) (int, error) {
	due, err := s.entries.ListDueForReminder(ctx, now)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, e := range due {
		if !e.ShouldRemind(now) {
			continue
		}
		e.RecordReminder(now)
		if err := s.entries.Update(ctx, e); err != nil {
			s.logger.Error("failed to record reminder",
				zap.String("entry_id", e.ID().String()),
				zap.Error(err),
			)
			continue
		}
		sent++

		s.notifier.Notify(ctx, events.NotifyCommissionDue, e.HostID(), map[string]interface{}{
			"kind":           string(e.Kind()),
			"period":         e.Period(),
			"amount":         e.Amount(),
			"currency":       e.Currency(),
			"reminder_stage": e.ReminderStage(),
			"grace_end":      e.GraceEndDate(),
		})
	}
	return sent, nil
}

// EnforceOverdue blocks hosts whose dues survived the grace window and applies
// the one-time late penalty to overdue fines. Both arms are idempotent, so the
// sweep can re-run freely. Returns the number of hosts newly blocked.
func (s *SettlementService) EnforceOverdue(ctx context.Context, now time.Time) (int, error) {
	pastGrace, err := s.entries.ListPastGrace(ctx, now)
	if err != nil {
		return 0, err
	}

	offenders := make(map[uuid.UUID]bool)
	for _, e := range pastGrace {
		offenders[e.HostID()] = true
	}

	fineHosts, err := s.hosts.ListHostsWithOverdueFines(ctx, now)
	if err != nil {
		return 0, err
	}
	for _, hostID := range fineHosts {
		offenders[hostID] = true
	}

	blocked := 0
	for hostID := range offenders {
		newlyBlocked, err := s.enforceHost(ctx, hostID, now)
		if err != nil {
			s.logger.Error("enforcement failed for host",
				zap.String("host_id", hostID.String()),
				zap.Error(err),
			)
			continue
		}
		if newlyBlocked {
			blocked++
		}
	}
	return blocked, nil
}

func (s *SettlementService) enforceHost(ctx context.Context, hostID uuid.UUID, now time.Time) (bool, error) {
	fines, err := s.hosts.ListUnpaidFines(ctx, hostID)
	if err != nil {
		return false, err
	}

	for _, f := range fines {
		if !f.Overdue(now) {
			continue
		}
		penalty := f.ApplyLatePenalty(s.cfg.LatePenaltyPercent)
		enforced := f.MarkEnforced()
		if penalty > 0 || enforced {
			if err := s.hosts.UpdateFine(ctx, f); err != nil {
				return false, err
			}
		}
		if penalty > 0 {
			if _, err := s.refreshFineLedger(ctx, hostID); err != nil {
				return false, err
			}
		}
	}

	account, err := s.hosts.FindAccount(ctx, hostID)
	if err != nil {
		return false, err
	}
	if account.IsBlocked() {
		return false, nil
	}

	account.Block("outstanding dues past grace period", nil)
	if err := s.hosts.UpdateAccount(ctx, account); err != nil {
		return false, err
	}

	s.notifier.Notify(ctx, events.NotifyAccountBlocked, hostID, map[string]interface{}{
		"reason": account.BlockReason(),
	})
	return true, nil
}

// refreshFineLedger re-synchronizes the host's single rolling fine entry with
// the sum of its unpaid fine items, due at the earliest unpaid fine's date.
func (s *SettlementService) refreshFineLedger(ctx context.Context, hostID uuid.UUID) (*ledgerDomain.Entry, error) {
	fines, err := s.hosts.ListUnpaidFines(ctx, hostID)
	if err != nil {
		return nil, err
	}
	var total int64
	dueDate := time.Now().UTC()
	haveDue := false
	for _, f := range fines {
		total += f.Amount()
		if d := f.DueDate(); d != nil && (!haveDue || d.Before(dueDate)) {
			dueDate = *d
			haveDue = true
		}
	}
	if total <= 0 {
		return nil, domain.NewInvalidAmountError("no unpaid fines to ledger")
	}

	entry, err := ledgerDomain.NewFineEntry(hostID, total, s.cfg.Currency, dueDate, s.cfg.GraceDays)
	if err != nil {
		return nil, err
	}
	if err := s.entries.UpsertEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func toDuesEntryDTO(e *ledgerDomain.Entry) DuesEntryDTO {
	return DuesEntryDTO{
		ID:            e.ID(),
		Kind:          string(e.Kind()),
		Period:        e.Period(),
		Amount:        e.Amount(),
		Currency:      e.Currency(),
		Status:        string(e.Status()),
		DueDate:       e.DueDate(),
		GraceEndDate:  e.GraceEndDate(),
		ReminderStage: e.ReminderStage(),
		LastReminder:  e.LastReminderAt(),
	}
}
