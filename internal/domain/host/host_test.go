package host

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayloop/service-booking/internal/domain"
)

func TestAccount_BlockKeepsOriginalReason(t *testing.T) {
	a := NewAccount(uuid.New())
	require.False(t, a.IsBlocked())

	a.Block("overdue dues", nil)
	assert.True(t, a.IsBlocked())
	assert.Equal(t, "overdue dues", a.BlockReason())
	firstBlockedAt := a.BlockedAt()

	// Re-blocking is a no-op so repeated enforcement cannot reset the clock.
	a.Block("something else", nil)
	assert.Equal(t, "overdue dues", a.BlockReason())
	assert.Equal(t, firstBlockedAt, a.BlockedAt())
}

func TestAccount_UnblockClearsEverything(t *testing.T) {
	a := NewAccount(uuid.New())
	until := time.Now().UTC().AddDate(0, 0, 7)
	a.Block("overdue dues", &until)
	a.GrantLimitedAccess()

	a.Unblock()
	assert.False(t, a.IsBlocked())
	assert.Nil(t, a.BlockedAt())
	assert.Empty(t, a.BlockReason())
	assert.Nil(t, a.BlockedUntil())
	assert.False(t, a.LimitedAccess())
}

func TestAccount_AutoUnblockIfExpired(t *testing.T) {
	a := NewAccount(uuid.New())
	until := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	a.Block("temporary", &until)

	// Before expiry nothing happens.
	assert.False(t, a.AutoUnblockIfExpired(until.AddDate(0, 0, -1)))
	assert.True(t, a.IsBlocked())

	assert.True(t, a.AutoUnblockIfExpired(until.Add(time.Hour)))
	assert.False(t, a.IsBlocked())

	// Open-ended blocks never expire.
	a.Block("permanent", nil)
	assert.False(t, a.AutoUnblockIfExpired(time.Now().UTC().AddDate(10, 0, 0)))
	assert.True(t, a.IsBlocked())
}

func TestFineItem_Validation(t *testing.T) {
	_, err := NewFineItem(uuid.New(), "late checkout damages", 0, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	f, err := NewFineItem(uuid.New(), "late checkout damages", 50_000, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), f.Amount())
	assert.False(t, f.Paid())
}

func TestFineItem_Overdue(t *testing.T) {
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	f, err := NewFineItem(uuid.New(), "damages", 50_000, &due)
	require.NoError(t, err)

	assert.False(t, f.Overdue(due))
	assert.True(t, f.Overdue(due.Add(time.Minute)))

	f.MarkPaid(due.Add(time.Hour))
	assert.False(t, f.Overdue(due.AddDate(0, 0, 10)))

	// No due date means never overdue.
	open, err := NewFineItem(uuid.New(), "damages", 50_000, nil)
	require.NoError(t, err)
	assert.False(t, open.Overdue(time.Now().UTC().AddDate(1, 0, 0)))
}

func TestFineItem_LatePenaltyAppliedOnce(t *testing.T) {
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	f, err := NewFineItem(uuid.New(), "damages", 50_000, &due)
	require.NoError(t, err)

	penalty := f.ApplyLatePenalty(2)
	assert.Equal(t, int64(1_000), penalty)
	assert.Equal(t, int64(51_000), f.Amount())
	assert.True(t, f.PenaltyApplied())

	// Second sweep adds nothing.
	assert.Equal(t, int64(0), f.ApplyLatePenalty(2))
	assert.Equal(t, int64(51_000), f.Amount())
}

func TestFineItem_MarkEnforcedOnce(t *testing.T) {
	f, err := NewFineItem(uuid.New(), "damages", 50_000, nil)
	require.NoError(t, err)

	assert.True(t, f.MarkEnforced())
	assert.False(t, f.MarkEnforced())
}

func TestFineItem_MarkPaid(t *testing.T) {
	f, err := NewFineItem(uuid.New(), "damages", 50_000, nil)
	require.NoError(t, err)

	at := time.Now().UTC()
	f.MarkPaid(at)
	assert.True(t, f.Paid())
	require.NotNil(t, f.PaidAt())
	assert.Equal(t, at, *f.PaidAt())
}
