package models

import "fmt"

// CheckingMessage is the status message of a site that has been added but not yet scanned.
const CheckingMessage = "Checking..."

// SiteStatus is the last known reachability of a site.
// Up is nil until the site has been checked at least once.
type SiteStatus struct {
	Up      *bool  `json:"up"`
	Message string `json:"message"`
}

// MonitoredSite is a tracked URL with its last known status.
type MonitoredSite struct {
	URL    string     `json:"url"`
	Status SiteStatus `json:"status"`
}

// NewMonitoredSite returns a site in the unchecked state.
func NewMonitoredSite(url string) MonitoredSite {
	return MonitoredSite{
		URL:    url,
		Status: UncheckedStatus(),
	}
}

// UncheckedStatus is the status of a site added but not scanned yet.
func UncheckedStatus() SiteStatus {
	return SiteStatus{Up: nil, Message: CheckingMessage}
}

// RunningStatus builds the status recorded when any HTTP response came back.
func RunningStatus(statusCode int) SiteStatus {
	up := true
	return SiteStatus{
		Up:      &up,
		Message: fmt.Sprintf("Website is Running. Status code: %d", statusCode),
	}
}

// DownStatus builds the status recorded when the request itself failed.
func DownStatus(description string) SiteStatus {
	up := false
	return SiteStatus{
		Up:      &up,
		Message: fmt.Sprintf("Website is Down. Error: %s", description),
	}
}

// Checked reports whether the status comes from a real check.
func (s SiteStatus) Checked() bool {
	return s.Up != nil
}

// IsUp reports whether the site was reachable on its last check.
func (s SiteStatus) IsUp() bool {
	return s.Up != nil && *s.Up
}

// IsDown reports whether the last check failed. Unchecked sites are neither up nor down.
func (s SiteStatus) IsDown() bool {
	return s.Up != nil && !*s.Up
}

// Clone returns a copy that shares no memory with s.
func (s SiteStatus) Clone() SiteStatus {
	if s.Up == nil {
		return SiteStatus{Message: s.Message}
	}
	up := *s.Up
	return SiteStatus{Up: &up, Message: s.Message}
}

// Clone returns a deep copy of the site.
func (m MonitoredSite) Clone() MonitoredSite {
	return MonitoredSite{URL: m.URL, Status: m.Status.Clone()}
}
