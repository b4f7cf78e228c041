package usecase

import (
	"fmt"
	"html"
	"strings"

	"github.com/user/steam-claimer/internal/entity"
)

// BuildDigest renders the end-of-run notification. It reports false when
// every record ended as existed, so nothing new happened worth sending.
func BuildDigest(user string, records []entity.NotificationRecord) (string, bool) {
	due := false
	for _, r := range records {
		if r.Status != entity.StatusExisted {
			due = true
			break
		}
	}
	if !due {
		return "", false
	}

	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, fmt.Sprintf(`- <a href="%s">%s</a> (%s)`,
			html.EscapeString(r.URL), html.EscapeString(r.Title), r.Status))
	}
	return fmt.Sprintf("steam (%s):<br>%s", html.EscapeString(user), strings.Join(lines, "<br>")), true
}
