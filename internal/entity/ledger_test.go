package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(ts ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := ts[i]
		if i < len(ts)-1 {
			i++
		}
		return t
	}
}

func TestUpsertIfAbsentKeepsExistingEntry(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLedger(nil)
	l.SetClock(fixedClock(t0))
	u := l.Partition("alice")

	e, created := u.UpsertIfAbsent("100", LedgerEntry{Title: "Game", URL: "https://store.steampowered.com/app/100/"})
	require.True(t, created)
	assert.Equal(t, "100", e.ID)
	assert.Equal(t, StatusUnset, e.Status)
	assert.True(t, e.FirstSeen.Equal(t0))

	require.True(t, u.SetStatusIfUnset("100", StatusExisted))

	e, created = u.UpsertIfAbsent("100", LedgerEntry{Title: "Other"})
	assert.False(t, created)
	assert.Equal(t, "Game", e.Title)
	assert.Equal(t, StatusExisted, e.Status)
}

func TestStatusMonotonicity(t *testing.T) {
	tests := []struct {
		name    string
		initial ClaimStatus
		claim   bool
		setIf   ClaimStatus
		want    ClaimStatus
	}{
		{name: "failed to claimed", initial: StatusFailed, claim: true, want: StatusClaimed},
		{name: "unset to claimed", initial: StatusUnset, claim: true, want: StatusClaimed},
		{name: "existed never claimed", initial: StatusExisted, claim: true, want: StatusExisted},
		{name: "existed never failed", initial: StatusExisted, setIf: StatusFailed, want: StatusExisted},
		{name: "claimed never failed", initial: StatusClaimed, setIf: StatusFailed, want: StatusClaimed},
		{name: "failed not replaced by existed", initial: StatusFailed, setIf: StatusExisted, want: StatusFailed},
		{name: "unset to existed", initial: StatusUnset, setIf: StatusExisted, want: StatusExisted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewLedger(LedgerDocument{
				"alice": {"1": {Title: "x", Status: tt.initial}},
			}).Partition("alice")

			if tt.claim {
				u.SetClaimed("1")
			}
			if tt.setIf != StatusUnset {
				u.SetStatusIfUnset("1", tt.setIf)
			}
			assert.Equal(t, tt.want, u.Status("1"))
		})
	}
}

func TestUpdatedAtOnlyRefreshedOnStatusChange(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	t2 := t1.Add(time.Hour)
	l := NewLedger(nil)
	l.SetClock(fixedClock(t0, t1, t2))
	u := l.Partition("alice")

	u.UpsertIfAbsent("7", LedgerEntry{Title: "Seven"})
	require.True(t, u.SetClaimed("7"))
	e, _ := u.Get("7")
	assert.True(t, e.UpdatedAt.Equal(t1))
	assert.True(t, e.FirstSeen.Equal(t0))

	assert.False(t, u.SetStatusIfUnset("7", StatusExisted))
	assert.False(t, u.SetClaimed("7"))
	e, _ = u.Get("7")
	assert.True(t, e.UpdatedAt.Equal(t1))
}

func TestNewLedgerAssignsIDsAndDropsNilEntries(t *testing.T) {
	l := NewLedger(LedgerDocument{
		"bob": {"5": {Title: "Five", Status: StatusClaimed}, "6": nil},
	})
	u := l.Partition("bob")
	entries := u.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "5", entries["5"].ID)
	assert.True(t, u.IsResolved("5"))
	assert.False(t, u.IsResolved("6"))
}

func TestOperationsOnMissingEntryAreNoops(t *testing.T) {
	u := NewLedger(nil).Partition("carol")
	assert.False(t, u.SetClaimed("404"))
	assert.False(t, u.SetStatusIfUnset("404", StatusFailed))
	assert.Equal(t, StatusUnset, u.Status("404"))
	assert.Empty(t, u.Entries())
}
