package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	bookingDomain "github.com/stayloop/service-booking/internal/domain/booking"
	hostDomain "github.com/stayloop/service-booking/internal/domain/host"
	ledgerDomain "github.com/stayloop/service-booking/internal/domain/ledger"
	propertyDomain "github.com/stayloop/service-booking/internal/domain/property"
)

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	args := m.Called(ctx, id)
	if b := args.Get(0); b != nil {
		return b.(*bookingDomain.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBookingRepo) HasConflict(ctx context.Context, propertyID uuid.UUID, roomID *uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error) {
	args := m.Called(ctx, propertyID, roomID, start, end, exclude)
	return args.Bool(0), args.Error(1)
}

func (m *mockBookingRepo) CreateIfAvailable(ctx context.Context, b *bookingDomain.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookingRepo) UpdateIfAvailable(ctx context.Context, b *bookingDomain.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookingRepo) Update(ctx context.Context, b *bookingDomain.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookingRepo) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	args := m.Called(ctx, page, limit)
	if bs := args.Get(0); bs != nil {
		return bs.([]*bookingDomain.Booking), args.Get(1).(int64), args.Error(2)
	}
	return nil, 0, args.Error(2)
}

func (m *mockBookingRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	if counts := args.Get(0); counts != nil {
		return counts.(map[string]int64), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBookingRepo) ListConfirmedCheckedOutBefore(ctx context.Context, cutoff time.Time, limit int) ([]*bookingDomain.Booking, error) {
	args := m.Called(ctx, cutoff, limit)
	if bs := args.Get(0); bs != nil {
		return bs.([]*bookingDomain.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBookingRepo) CommissionOwedByHost(ctx context.Context, from, to time.Time) (map[uuid.UUID]int64, error) {
	args := m.Called(ctx, from, to)
	if owed := args.Get(0); owed != nil {
		return owed.(map[uuid.UUID]int64), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPropertyRepo struct {
	mock.Mock
}

func (m *mockPropertyRepo) FindProperty(ctx context.Context, id uuid.UUID) (*propertyDomain.Property, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*propertyDomain.Property), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPropertyRepo) FindRoom(ctx context.Context, id uuid.UUID) (*propertyDomain.Room, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*propertyDomain.Room), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockHostRepo struct {
	mock.Mock
}

func (m *mockHostRepo) FindAccount(ctx context.Context, hostID uuid.UUID) (*hostDomain.Account, error) {
	args := m.Called(ctx, hostID)
	if a := args.Get(0); a != nil {
		return a.(*hostDomain.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockHostRepo) UpdateAccount(ctx context.Context, a *hostDomain.Account) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockHostRepo) AddFine(ctx context.Context, f *hostDomain.FineItem) error {
	return m.Called(ctx, f).Error(0)
}

func (m *mockHostRepo) ListUnpaidFines(ctx context.Context, hostID uuid.UUID) ([]*hostDomain.FineItem, error) {
	args := m.Called(ctx, hostID)
	if fs := args.Get(0); fs != nil {
		return fs.([]*hostDomain.FineItem), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockHostRepo) UpdateFine(ctx context.Context, f *hostDomain.FineItem) error {
	return m.Called(ctx, f).Error(0)
}

func (m *mockHostRepo) ListHostsWithOverdueFines(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, now)
	if ids := args.Get(0); ids != nil {
		return ids.([]uuid.UUID), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockLedgerRepo struct {
	mock.Mock
}

func (m *mockLedgerRepo) UpsertEntry(ctx context.Context, e *ledgerDomain.Entry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockLedgerRepo) ListOpenByHost(ctx context.Context, hostID uuid.UUID) ([]*ledgerDomain.Entry, error) {
	args := m.Called(ctx, hostID)
	if es := args.Get(0); es != nil {
		return es.([]*ledgerDomain.Entry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedgerRepo) ListDueForReminder(ctx context.Context, now time.Time) ([]*ledgerDomain.Entry, error) {
	args := m.Called(ctx, now)
	if es := args.Get(0); es != nil {
		return es.([]*ledgerDomain.Entry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedgerRepo) ListPastGrace(ctx context.Context, now time.Time) ([]*ledgerDomain.Entry, error) {
	args := m.Called(ctx, now)
	if es := args.Get(0); es != nil {
		return es.([]*ledgerDomain.Entry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedgerRepo) Update(ctx context.Context, e *ledgerDomain.Entry) error {
	return m.Called(ctx, e).Error(0)
}

type mockSettlementStore struct {
	mock.Mock
}

func (m *mockSettlementStore) ApplyPayment(ctx context.Context, hostID uuid.UUID, amount int64) (*ledgerDomain.SettlementResult, error) {
	args := m.Called(ctx, hostID, amount)
	if r := args.Get(0); r != nil {
		return r.(*ledgerDomain.SettlementResult), args.Error(1)
	}
	return nil, args.Error(1)
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	kinds      []string
	recipients []uuid.UUID
}

func (n *recordingNotifier) Notify(ctx context.Context, kind string, recipient uuid.UUID, payload map[string]interface{}) {
	n.kinds = append(n.kinds, kind)
	n.recipients = append(n.recipients, recipient)
}

func (n *recordingNotifier) has(kind string) bool {
	for _, k := range n.kinds {
		if k == kind {
			return true
		}
	}
	return false
}
