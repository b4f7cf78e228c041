package usecase

import (
	"sync/atomic"
	"time"

	"github.com/user/steam-claimer/internal/entity"
)

// Completion codes of a run.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

// ExitStatus holds the process completion code. The first code set wins.
type ExitStatus struct {
	code atomic.Int32
}

// SetIfUnset records code unless a code was already recorded.
func (e *ExitStatus) SetIfUnset(code int) bool {
	return e.code.CompareAndSwap(ExitOK, int32(code))
}

// Code returns the recorded code, ExitOK when none.
func (e *ExitStatus) Code() int {
	return int(e.code.Load())
}

// Timeouts groups the waits used while driving the page.
type Timeouts struct {
	// Short bounds waits for optional signals; expiry means absence.
	Short time.Duration
	// Page bounds required navigations and form waits.
	Page time.Duration
	// Login bounds the whole login procedure.
	Login time.Duration
}

// Session is the run-scoped state threaded through the claim procedure.
type Session struct {
	Username string
	Ledger   *entity.UserLedger

	records []*entity.NotificationRecord
}

// NewSession starts a session for an authenticated user.
func NewSession(username string, ledger *entity.UserLedger) *Session {
	return &Session{Username: username, Ledger: ledger}
}

func (s *Session) addRecord(title, url string) *entity.NotificationRecord {
	r := &entity.NotificationRecord{Title: title, URL: url, Status: entity.StatusFailed}
	s.records = append(s.records, r)
	return r
}

// Records returns the notification records in processing order.
func (s *Session) Records() []entity.NotificationRecord {
	out := make([]entity.NotificationRecord, len(s.records))
	for i, r := range s.records {
		out[i] = *r
	}
	return out
}
