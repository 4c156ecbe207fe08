package models

import "time"

// Attendance represents a guest's attendance answer
type Attendance string

const (
	AttendanceYes   Attendance = "YES"
	AttendanceNo    Attendance = "NO"
	AttendanceMaybe Attendance = "MAYBE"
)

// Valid reports whether the attendance value is one of the accepted answers
func (a Attendance) Valid() bool {
	switch a {
	case AttendanceYes, AttendanceNo, AttendanceMaybe:
		return true
	}
	return false
}

// PendingRSVP is a locally queued RSVP submission awaiting delivery.
// It is written once at enqueue time and deleted after the server
// acknowledges it; business fields are never mutated in place.
type PendingRSVP struct {
	ID              string     `json:"id"`
	FullName        string     `json:"fullName"`
	Attending       Attendance `json:"attending"`
	MealPreference  string     `json:"mealPreference"`
	Allergies       string     `json:"allergies"`
	AdditionalNotes string     `json:"additionalNotes"`
	Timestamp       int64      `json:"timestamp"` // epoch milliseconds

	// Attempts counts delivery attempts. It is queue bookkeeping,
	// not part of the wire payload.
	Attempts int `json:"attempts,omitempty"`
}

// PendingPhotoUpload is a locally queued photo awaiting delivery.
// Same lifecycle as PendingRSVP.
type PendingPhotoUpload struct {
	ID           string `json:"id"`
	Image        []byte `json:"image"`
	Caption      string `json:"caption"`
	UploaderName string `json:"uploaderName"`
	Timestamp    int64  `json:"timestamp"`

	Attempts int `json:"attempts,omitempty"`
}

// ConnectionQuality is a coarse classification of the confirmed link
type ConnectionQuality string

const (
	QualityFast    ConnectionQuality = "fast"
	QualitySlow    ConnectionQuality = "slow"
	QualityUnknown ConnectionQuality = "unknown"
)

// NetworkStatus is the monitor's current reachability assessment.
// Ephemeral; never persisted across sessions.
type NetworkStatus struct {
	Online        bool              `json:"online"`
	Connecting    bool              `json:"connecting"`
	LastConnected time.Time         `json:"lastConnected,omitempty"`
	Quality       ConnectionQuality `json:"quality"`
}

// CachedEntry holds last-known-good reference data fetched from the
// remote API, served read-through while offline.
type CachedEntry struct {
	Key       string    `json:"key"`
	Content   []byte    `json:"content"`
	FetchedAt time.Time `json:"fetchedAt"`
}
