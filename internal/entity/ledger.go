package entity

import "time"

// Ledger is the in-memory claim ledger for one run. It wraps the persisted
// document and exposes the only operations allowed to change an entry's status.
type Ledger struct {
	doc   LedgerDocument
	clock func() time.Time
}

// NewLedger wraps a loaded document. A nil document starts an empty ledger.
func NewLedger(doc LedgerDocument) *Ledger {
	if doc == nil {
		doc = LedgerDocument{}
	}
	for _, entries := range doc {
		for id, e := range entries {
			if e == nil {
				delete(entries, id)
				continue
			}
			e.ID = id
		}
	}
	return &Ledger{doc: doc, clock: defaultClock}
}

func defaultClock() time.Time {
	return time.Now().UTC().Round(0)
}

// SetClock overrides the time source used for entry timestamps.
func (l *Ledger) SetClock(clock func() time.Time) {
	l.clock = clock
}

// Document returns the underlying document for persistence.
func (l *Ledger) Document() LedgerDocument {
	return l.doc
}

// Users returns the partitions present in the ledger.
func (l *Ledger) Users() []string {
	users := make([]string, 0, len(l.doc))
	for u := range l.doc {
		users = append(users, u)
	}
	return users
}

// Partition returns the entries of one user, creating the partition if needed.
func (l *Ledger) Partition(user string) *UserLedger {
	entries, ok := l.doc[user]
	if !ok {
		entries = map[string]*LedgerEntry{}
		l.doc[user] = entries
	}
	return &UserLedger{user: user, entries: entries, clock: l.clock}
}

// UserLedger is a single user's view of the ledger.
type UserLedger struct {
	user    string
	entries map[string]*LedgerEntry
	clock   func() time.Time
}

// User returns the partition key.
func (u *UserLedger) User() string {
	return u.user
}

// Get returns a copy of the entry for id.
func (u *UserLedger) Get(id string) (LedgerEntry, bool) {
	e, ok := u.entries[id]
	if !ok {
		return LedgerEntry{}, false
	}
	return *e, true
}

// Status returns the recorded status for id, StatusUnset when absent.
func (u *UserLedger) Status(id string) ClaimStatus {
	if e, ok := u.entries[id]; ok {
		return e.Status
	}
	return StatusUnset
}

// IsResolved reports whether id was already claimed or found owned.
func (u *UserLedger) IsResolved(id string) bool {
	return u.Status(id).Resolved()
}

// UpsertIfAbsent creates the entry for id from defaults when none exists.
// An existing entry, including its status, is left untouched.
func (u *UserLedger) UpsertIfAbsent(id string, defaults LedgerEntry) (LedgerEntry, bool) {
	if e, ok := u.entries[id]; ok {
		return *e, false
	}
	now := u.clock()
	e := defaults
	e.ID = id
	e.Status = StatusUnset
	if e.FirstSeen.IsZero() {
		e.FirstSeen = now
	}
	e.UpdatedAt = e.FirstSeen
	u.entries[id] = &e
	return e, true
}

// SetStatusIfUnset records status only when the entry has none yet.
// It reports whether the entry changed.
func (u *UserLedger) SetStatusIfUnset(id string, status ClaimStatus) bool {
	e, ok := u.entries[id]
	if !ok || e.Status != StatusUnset {
		return false
	}
	e.Status = status
	e.UpdatedAt = u.clock()
	return true
}

// SetClaimed marks id as claimed. Only an unset or failed status is
// overwritten; existed and claimed entries never change.
func (u *UserLedger) SetClaimed(id string) bool {
	e, ok := u.entries[id]
	if !ok {
		return false
	}
	if e.Status != StatusUnset && e.Status != StatusFailed {
		return false
	}
	e.Status = StatusClaimed
	e.UpdatedAt = u.clock()
	return true
}

// Entries returns a copy of every entry in the partition.
func (u *UserLedger) Entries() map[string]LedgerEntry {
	out := make(map[string]LedgerEntry, len(u.entries))
	for id, e := range u.entries {
		out[id] = *e
	}
	return out
}
