package enums

import "fmt"

// AlertSeverity classifies how urgently a product needs restocking.
type AlertSeverity string

const (
	AlertSeverityCritical AlertSeverity = "critical"
	AlertSeverityHigh     AlertSeverity = "high"
	AlertSeverityMedium   AlertSeverity = "medium"
	// AlertSeverityLow is never produced while alerts only cover stock <= threshold.
	AlertSeverityLow AlertSeverity = "low"
)

var severityRank = map[AlertSeverity]int{
	AlertSeverityCritical: 0,
	AlertSeverityHigh:     1,
	AlertSeverityMedium:   2,
	AlertSeverityLow:      3,
}

func (s AlertSeverity) String() string {
	return string(s)
}

func (s AlertSeverity) IsValid() bool {
	_, ok := severityRank[s]
	return ok
}

// Rank orders severities with Critical first. Unknown values sort last.
func (s AlertSeverity) Rank() int {
	if rank, ok := severityRank[s]; ok {
		return rank
	}
	return len(severityRank)
}

func ParseAlertSeverity(value string) (AlertSeverity, error) {
	candidate := AlertSeverity(value)
	if candidate.IsValid() {
		return candidate, nil
	}
	return "", fmt.Errorf("invalid alert severity %q", value)
}
