package board

import "github.com/mr1hm/go-community-alerts/internal/models"

// Matches reports whether the alert satisfies every filtered dimension of c.
// Comparison is exact and case-sensitive; empty or "all" disables a dimension.
func Matches(a *models.Alert, c models.Criteria) bool {
	return dimensionMatches(c.Category, string(a.Category)) &&
		dimensionMatches(c.Severity, string(a.Severity)) &&
		dimensionMatches(c.Status, string(a.Status))
}

// Filter returns the alerts matching c in their original order. The result
// never aliases alerts.
func Filter(alerts []models.Alert, c models.Criteria) []models.Alert {
	out := make([]models.Alert, 0, len(alerts))
	for i := range alerts {
		if Matches(&alerts[i], c) {
			out = append(out, alerts[i])
		}
	}
	return out
}

func dimensionMatches(want, got string) bool {
	if want == "" || want == models.All {
		return true
	}
	return want == got
}
