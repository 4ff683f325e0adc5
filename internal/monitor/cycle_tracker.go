package monitor

import (
	"sort"
	"sync"

	"github.com/aleister1102/downtime/internal/checker"
	"github.com/aleister1102/downtime/internal/models"
)

// CycleTracker tallies the results of one scan pass. It is safe for use by the pass workers.
type CycleTracker struct {
	mutex         sync.Mutex
	cycleID       string
	checked       int
	up            int
	down          int
	notifications int
	changedURLs   map[string]checker.Transition
}

// NewCycleTracker creates a tracker for the pass identified by cycleID.
func NewCycleTracker(cycleID string) *CycleTracker {
	return &CycleTracker{
		cycleID:     cycleID,
		changedURLs: make(map[string]checker.Transition),
	}
}

// GetCurrentCycleID returns the id of the tracked pass.
func (ct *CycleTracker) GetCurrentCycleID() string {
	return ct.cycleID
}

// Record counts one applied check result.
func (ct *CycleTracker) Record(result checker.StatusResult, notified bool) {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()

	ct.checked++
	if result.Current.IsUp() {
		ct.up++
	} else {
		ct.down++
	}
	if notified {
		ct.notifications++
	}
	if result.Transition == checker.TransitionDown || result.Transition == checker.TransitionRecovered {
		ct.changedURLs[result.Site.URL] = result.Transition
	}
}

// HasChanges returns true if any site went down or recovered in this pass
func (ct *CycleTracker) HasChanges() bool {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()
	return len(ct.changedURLs) > 0
}

// GetChangedURLs returns the sites that went down or recovered, sorted.
func (ct *CycleTracker) GetChangedURLs() []string {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()

	urls := make([]string, 0, len(ct.changedURLs))
	for url := range ct.changedURLs {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}

// Fill copies the counters into summary.
func (ct *CycleTracker) Fill(summary *models.ScanSummary) {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()

	summary.ScanSessionID = ct.cycleID
	summary.SitesChecked = ct.checked
	summary.SitesUp = ct.up
	summary.SitesDown = ct.down
	summary.Notifications = ct.notifications
}
