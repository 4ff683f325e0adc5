package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/aleister1102/downtime/internal/checker"
	"github.com/aleister1102/downtime/internal/config"
	"github.com/aleister1102/downtime/internal/datastore"
	"github.com/aleister1102/downtime/internal/models"
	"github.com/aleister1102/downtime/internal/notifier"
	"github.com/aleister1102/downtime/internal/urlhandler"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// historyWriteTimeout bounds journal writes made after a pass was cancelled.
const historyWriteTimeout = 5 * time.Second

// ScanHistory journals scan passes. Implemented by datastore.ScanHistoryDB.
type ScanHistory interface {
	RecordScanStart(ctx context.Context, scanSessionID string, trigger models.ScanTrigger, numTargets int, startTime time.Time) (int64, error)
	UpdateScanCompletion(ctx context.Context, dbScanID int64, summary models.ScanSummary) error
	GetLastScanTime(ctx context.Context) (*time.Time, error)
	RecentScans(ctx context.Context, limit int) ([]datastore.ScanHistoryEntry, error)
}

// SiteChecker checks monitored sites and probes arbitrary URLs.
type SiteChecker interface {
	StatusProber
	Check(ctx context.Context, site models.MonitoredSite) (checker.StatusResult, error)
}

// MonitoringService is the entry point used by the API: it owns the website store,
// runs scan passes through the scheduler and answers ad-hoc searches.
type MonitoringService struct {
	cfg           config.MonitorConfig
	store         *datastore.SiteStore
	checker       SiteChecker
	notifications *notifier.NotificationHelper
	history       ScanHistory
	search        *SearchCache
	scheduler     *Scheduler
	logger        zerolog.Logger

	startedAt   time.Time
	lastMu      sync.RWMutex
	lastSummary *models.ScanSummary
}

// NewMonitoringService creates a new instance of MonitoringService.
// history may be nil when the scan journal is disabled.
func NewMonitoringService(
	cfg config.MonitorConfig,
	store *datastore.SiteStore,
	siteChecker SiteChecker,
	notifications *notifier.NotificationHelper,
	history ScanHistory,
	baseLogger zerolog.Logger,
) *MonitoringService {
	s := &MonitoringService{
		cfg:           cfg,
		store:         store,
		checker:       siteChecker,
		notifications: notifications,
		history:       history,
		logger:        baseLogger.With().Str("component", "MonitoringService").Logger(),
		startedAt:     time.Now(),
	}
	s.search = NewSearchCache(cfg.SearchCacheSize, cfg.SearchCacheTTL(), siteChecker, baseLogger)
	s.scheduler = NewScheduler(cfg.CheckInterval(), cfg.ScanOnStartup, s.scanAll, baseLogger)
	return s
}

// Start begins periodic scanning.
func (s *MonitoringService) Start(ctx context.Context) error {
	s.logger.Info().Int("sites", s.store.Len()).Msg("Starting MonitoringService...")
	return s.scheduler.Start(ctx)
}

// Stop halts scanning, waits for pending notifications and flushes the store.
func (s *MonitoringService) Stop() error {
	s.scheduler.Stop()
	if s.notifications != nil {
		s.notifications.Wait()
	}
	if err := s.store.Persist(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to flush websites on shutdown")
		return err
	}
	s.logger.Info().Msg("MonitoringService stopped")
	return nil
}

// ListSites returns every monitored site in insertion order.
func (s *MonitoringService) ListSites() []models.MonitoredSite {
	return s.store.List()
}

// AddSite starts monitoring rawURL. Adding a URL twice is not an error; added is
// false the second time. A new site is checked by a scan pass shortly after.
func (s *MonitoringService) AddSite(rawURL string) (site models.MonitoredSite, added bool, err error) {
	url, err := urlhandler.NormalizeURL(rawURL)
	if err != nil {
		return models.MonitoredSite{}, false, err
	}

	added = s.store.Add(url)
	s.search.Evict(url)

	if added {
		s.logger.Info().Str("url", url).Msg("Website added for monitoring")
		s.persist()
		if s.cfg.ScanOnAdd {
			s.scheduler.Trigger(models.TriggerAdd)
		}
	}

	site, _ = s.store.Get(url)
	return site, added, nil
}

// RemoveSite stops monitoring rawURL. It returns models.ErrSiteNotFound if the
// URL is not monitored.
func (s *MonitoringService) RemoveSite(rawURL string) error {
	url, err := urlhandler.NormalizeURL(rawURL)
	if err != nil {
		return err
	}

	if !s.store.Remove(url) {
		return models.ErrSiteNotFound
	}

	s.logger.Info().Str("url", url).Msg("Website removed from monitoring")
	s.persist()
	return nil
}

// Search reports the status of rawURL: the monitored status if it is in the store,
// otherwise a cached or fresh one-off probe. It never modifies the store.
func (s *MonitoringService) Search(ctx context.Context, rawURL string) (models.MonitoredSite, error) {
	url, err := urlhandler.NormalizeURL(rawURL)
	if err != nil {
		return models.MonitoredSite{}, err
	}

	if site, ok := s.store.Get(url); ok {
		return site, nil
	}

	return s.search.Resolve(ctx, url, func(u string) bool {
		_, monitored := s.store.Get(u)
		return monitored
	})
}

// ScanAll runs a full pass now, or joins the one already running, and returns its summary.
func (s *MonitoringService) ScanAll(ctx context.Context) (models.ScanSummary, error) {
	return s.scheduler.ScanNow(ctx, models.TriggerManual)
}

// SiteCount returns the number of monitored sites.
func (s *MonitoringService) SiteCount() int {
	return s.store.Len()
}

// Uptime returns how long the service has been running.
func (s *MonitoringService) Uptime() time.Duration {
	return time.Since(s.startedAt)
}

// SchedulerActive reports whether periodic scanning is running.
func (s *MonitoringService) SchedulerActive() bool {
	return s.scheduler.IsActive()
}

// LastCompletedScan returns when the most recent completed pass started. Passes from
// before a restart are found in the scan journal when it is enabled.
func (s *MonitoringService) LastCompletedScan(ctx context.Context) (time.Time, bool) {
	s.lastMu.RLock()
	last := s.lastSummary
	s.lastMu.RUnlock()
	if last != nil && last.Status == models.ScanStatusCompleted {
		return last.StartedAt, true
	}
	if s.history == nil {
		return time.Time{}, false
	}
	started, err := s.history.GetLastScanTime(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read last scan time")
		return time.Time{}, false
	}
	if started == nil {
		return time.Time{}, false
	}
	return *started, true
}

// RecentScans returns up to limit journal entries, newest first. It returns nothing
// when the scan journal is disabled.
func (s *MonitoringService) RecentScans(ctx context.Context, limit int) ([]datastore.ScanHistoryEntry, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.RecentScans(ctx, limit)
}

// LastScan returns the summary of the most recent pass, if any.
func (s *MonitoringService) LastScan() (models.ScanSummary, bool) {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	if s.lastSummary == nil {
		return models.ScanSummary{}, false
	}
	return *s.lastSummary, true
}

// scanAll checks every monitored site once with at most MaxConcurrentChecks probes
// in flight, sends notifications for transitions and persists the store once.
func (s *MonitoringService) scanAll(ctx context.Context, trigger models.ScanTrigger) (models.ScanSummary, error) {
	sites := s.store.List()
	tracker := NewCycleTracker(uuid.NewString())
	summary := models.ScanSummary{
		ScanSessionID: tracker.GetCurrentCycleID(),
		Trigger:       trigger,
		StartedAt:     time.Now(),
	}

	if len(sites) == 0 {
		summary.Status = models.ScanStatusNoTargets
		s.logger.Debug().Str("trigger", string(trigger)).Msg("No websites to check")
		s.setLastSummary(summary)
		return summary, nil
	}

	logger := s.logger.With().Str("scan_session_id", summary.ScanSessionID).Str("trigger", string(trigger)).Logger()
	logger.Info().Int("sites", len(sites)).Msg("Scan pass started")
	dbID := s.recordScanStart(ctx, summary, len(sites))

	limit := s.cfg.MaxConcurrentChecks
	if limit <= 0 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)

	for _, site := range sites {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			result, err := s.checker.Check(ctx, site)
			if err != nil || !result.Applied {
				return nil
			}
			tracker.Record(result, s.dispatch(result))
			return nil
		})
	}
	_ = g.Wait()

	tracker.Fill(&summary)
	summary.Duration = time.Since(summary.StartedAt)
	summary.Status = models.ScanStatusCompleted
	passErr := ctx.Err()
	if passErr != nil {
		summary.Status = models.ScanStatusInterrupted
	}

	if err := s.store.Persist(); err != nil {
		logger.Error().Err(err).Msg("Failed to persist websites after scan pass")
		summary.PersistErrMessage = err.Error()
	}
	s.recordScanCompletion(ctx, dbID, summary)
	s.setLastSummary(summary)

	event := logger.Info().
		Str("status", string(summary.Status)).
		Int("checked", summary.SitesChecked).
		Int("up", summary.SitesUp).
		Int("down", summary.SitesDown).
		Int("notifications", summary.Notifications).
		Dur("duration", summary.Duration)
	if tracker.HasChanges() {
		event = event.Strs("changed", tracker.GetChangedURLs())
	}
	event.Msg("Scan pass finished")

	return summary, passErr
}

// dispatch hands transitions to the notification helper and reports whether a send started.
func (s *MonitoringService) dispatch(result checker.StatusResult) bool {
	if s.notifications == nil {
		return false
	}
	switch result.Transition {
	case checker.TransitionDown:
		return s.notifications.NotifyDown(result.Site)
	case checker.TransitionRecovered:
		return s.notifications.NotifyRecovered(result.Site)
	default:
		return false
	}
}

func (s *MonitoringService) persist() {
	if err := s.store.Persist(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist websites")
	}
}

func (s *MonitoringService) setLastSummary(summary models.ScanSummary) {
	s.lastMu.Lock()
	s.lastSummary = &summary
	s.lastMu.Unlock()
}

func (s *MonitoringService) recordScanStart(ctx context.Context, summary models.ScanSummary, numTargets int) int64 {
	if s.history == nil {
		return 0
	}
	id, err := s.history.RecordScanStart(ctx, summary.ScanSessionID, summary.Trigger, numTargets, summary.StartedAt)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record scan start")
		return 0
	}
	return id
}

func (s *MonitoringService) recordScanCompletion(ctx context.Context, dbID int64, summary models.ScanSummary) {
	if s.history == nil || dbID == 0 {
		return
	}
	// The pass context may already be cancelled; the journal row should still be closed.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
	defer cancel()
	if err := s.history.UpdateScanCompletion(writeCtx, dbID, summary); err != nil {
		s.logger.Warn().Err(err).Int64("db_id", dbID).Msg("Failed to record scan completion")
	}
}
