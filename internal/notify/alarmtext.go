package notify

import (
	"strings"

	"smartguard/internal/models"
)

// alarmDescriptions is the translation table from alarm kinds to
// human-readable text. Unknown kinds fall back to the raw tag.
var alarmDescriptions = map[models.AlarmKind]string{
	models.AlarmHRLow:      "Low heart rate",
	models.AlarmHRHigh:     "High heart rate",
	models.AlarmSpO2Low:    "Low oxygen saturation",
	models.AlarmFall:       "Suspected fall",
	models.AlarmImmobile:   "Prolonged immobility (possible faint or stroke)",
	models.AlarmCriticalHR: "Critical heart rate (possible collapse)",
	models.AlarmManual:     "Manual help request",
}

// Describe translates one alarm kind.
func Describe(kind models.AlarmKind) string {
	if text, ok := alarmDescriptions[kind]; ok {
		return text
	}
	return kind
}

// AlarmText derives a notification title and body from the kinds present.
// The derivation is deterministic so repeated dispatches of the same event
// produce identical messages.
func AlarmText(kinds []models.AlarmKind) (title, body string) {
	if len(kinds) == 0 {
		return "SmartGuard", "New telemetry received"
	}

	descriptions := make([]string, 0, len(kinds))
	for _, k := range kinds {
		descriptions = append(descriptions, Describe(k))
	}

	title = "SmartGuard alarm: " + Describe(kinds[0])
	body = strings.Join(descriptions, ", ")
	return title, body
}
