package models

import "time"

// ScanStatus defines the possible states of a scan pass.
type ScanStatus string

const (
	ScanStatusStarted     ScanStatus = "STARTED"
	ScanStatusCompleted   ScanStatus = "COMPLETED"
	ScanStatusInterrupted ScanStatus = "INTERRUPTED"
	ScanStatusNoTargets   ScanStatus = "NO_TARGETS"
)

// ScanTrigger says why a scan pass was started.
type ScanTrigger string

const (
	TriggerStartup  ScanTrigger = "startup"
	TriggerInterval ScanTrigger = "interval"
	TriggerAdd      ScanTrigger = "add"
	TriggerManual   ScanTrigger = "manual"
)

// ScanSummary describes one full pass of the checker over the website store.
type ScanSummary struct {
	ScanSessionID     string        `json:"scan_session_id"`
	Trigger           ScanTrigger   `json:"trigger"`
	Status            ScanStatus    `json:"status"`
	StartedAt         time.Time     `json:"started_at"`
	Duration          time.Duration `json:"duration"`
	SitesChecked      int           `json:"sites_checked"`
	SitesUp           int           `json:"sites_up"`
	SitesDown         int           `json:"sites_down"`
	Notifications     int           `json:"notifications"`
	PersistErrMessage string        `json:"persist_error,omitempty"`
}

// IsSuccess checks if scan status indicates success
func (ss ScanStatus) IsSuccess() bool {
	return ss == ScanStatusCompleted || ss == ScanStatusNoTargets
}
