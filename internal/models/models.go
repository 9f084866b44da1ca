package models

// AlarmKind tags one detected anomaly condition. Producers may assert
// additional kinds not listed here; they pass through verbatim.
type AlarmKind = string

const (
	AlarmHRLow      AlarmKind = "HR_LOW"
	AlarmHRHigh     AlarmKind = "HR_HIGH"
	AlarmSpO2Low    AlarmKind = "SPO2_LOW"
	AlarmFall       AlarmKind = "FALL"
	AlarmImmobile   AlarmKind = "IMMOBILE"
	AlarmCriticalHR AlarmKind = "CRITICAL_HR"
	AlarmManual     AlarmKind = "MANUAL"
)

// Measurement is one telemetry sample from the wearable. Vital fields are
// pointers: an absent value skips its checks instead of evaluating as zero.
type Measurement struct {
	Timestamp   int64       `json:"ts"`
	HeartRate   *int        `json:"heartRate,omitempty"`
	SpO2        *int        `json:"spo2,omitempty"`
	SystolicBP  *int        `json:"sysBP,omitempty"`
	DiastolicBP *int        `json:"diaBP,omitempty"`
	AX          *float64    `json:"ax,omitempty"`
	AY          *float64    `json:"ay,omitempty"`
	AZ          *float64    `json:"az,omitempty"`
	Alarms      []AlarmKind `json:"alarms,omitempty"`
}

// Snapshot is a Measurement plus the alarm kinds it evaluated to. This is
// what the latest-slot holds and what goes out on the broadcast channel.
type Snapshot struct {
	Measurement
	Alarms []AlarmKind `json:"alarms"`
}

// Thresholds holds the active clinical limits. Singleton, swapped whole on
// update so an evaluation never observes a half-applied set.
type Thresholds struct {
	MinHR       int     `json:"minHR"`
	MaxHR       int     `json:"maxHR"`
	MinSpO2     int     `json:"minSpO2"`
	ImmobileSec int     `json:"immobileSec"`
	FallG       float64 `json:"fallG"`
}

// ThresholdPatch is a partial update; nil fields keep their current value.
type ThresholdPatch struct {
	MinHR       *int     `json:"minHR,omitempty"`
	MaxHR       *int     `json:"maxHR,omitempty"`
	MinSpO2     *int     `json:"minSpO2,omitempty"`
	ImmobileSec *int     `json:"immobileSec,omitempty"`
	FallG       *float64 `json:"fallG,omitempty"`
}

// AlarmEvent is one entry of the per-user alarm history. The vital-sign
// snapshot is flattened into individual fields to match the persisted layout.
type AlarmEvent struct {
	ID        string      `json:"id"`
	Timestamp int64       `json:"ts"`
	Kinds     []AlarmKind `json:"kinds"`
	HR        *float64    `json:"hr,omitempty"`
	SpO2      *float64    `json:"spo2,omitempty"`
	Systolic  *float64    `json:"systolic,omitempty"`
	Diastolic *float64    `json:"diastolic,omitempty"`
	AX        *float64    `json:"ax,omitempty"`
	AY        *float64    `json:"ay,omitempty"`
	AZ        *float64    `json:"az,omitempty"`
}

// DispatchOutcome reports the delivery result for one target user.
type DispatchOutcome struct {
	UserID string `json:"userId"`
	Status string `json:"status"` // "sent", "no_token", "failed"
	Error  string `json:"error,omitempty"`
}
