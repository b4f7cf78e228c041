package request

import (
	"fmt"
	"net/http"

	"github.com/user/steam-claimer/internal/entity"
)

// LedgerQuery holds the filters accepted by the ledger endpoint.
type LedgerQuery struct {
	Status entity.ClaimStatus // empty matches every entry
}

// ParseLedgerQuery reads ?status= from r. "unset" selects entries without a status.
func ParseLedgerQuery(r *http.Request) (LedgerQuery, error) {
	raw := r.URL.Query().Get("status")
	switch entity.ClaimStatus(raw) {
	case "":
		return LedgerQuery{}, nil
	case entity.StatusExisted, entity.StatusClaimed, entity.StatusFailed:
		return LedgerQuery{Status: entity.ClaimStatus(raw)}, nil
	}
	if raw == "unset" {
		return LedgerQuery{Status: "unset"}, nil
	}
	return LedgerQuery{}, fmt.Errorf("unknown status %q", raw)
}

// Match reports whether an entry passes the filter.
func (q LedgerQuery) Match(e *entity.LedgerEntry) bool {
	switch q.Status {
	case "":
		return true
	case "unset":
		return e.Status == entity.StatusUnset
	default:
		return e.Status == q.Status
	}
}
