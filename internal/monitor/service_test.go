package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aleister1102/downtime/internal/checker"
	"github.com/aleister1102/downtime/internal/common/errorwrapper"
	"github.com/aleister1102/downtime/internal/config"
	"github.com/aleister1102/downtime/internal/datastore"
	"github.com/aleister1102/downtime/internal/httpclient"
	"github.com/aleister1102/downtime/internal/models"
	"github.com/aleister1102/downtime/internal/notifier"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notifier.Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, n notifier.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) count(kind notifier.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sent {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

type fakeHistory struct {
	mu        sync.Mutex
	started   int
	completed []models.ScanSummary
}

func (f *fakeHistory) RecordScanStart(ctx context.Context, id string, trigger models.ScanTrigger, n int, start time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
	return int64(f.started), nil
}

func (f *fakeHistory) UpdateScanCompletion(ctx context.Context, dbID int64, summary models.ScanSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, summary)
	return nil
}

func (f *fakeHistory) GetLastScanTime(ctx context.Context) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.completed) - 1; i >= 0; i-- {
		if f.completed[i].Status == models.ScanStatusCompleted {
			started := f.completed[i].StartedAt
			return &started, nil
		}
	}
	return nil, nil
}

func (f *fakeHistory) RecentScans(ctx context.Context, limit int) ([]datastore.ScanHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []datastore.ScanHistoryEntry
	for i := len(f.completed) - 1; i >= 0 && len(entries) < limit; i-- {
		entries = append(entries, datastore.ScanHistoryEntry{
			ID:            int64(i + 1),
			ScanSessionID: f.completed[i].ScanSessionID,
			Status:        string(f.completed[i].Status),
		})
	}
	return entries, nil
}

// toggleServer answers 200 while up and drops the connection while down.
type toggleServer struct {
	*httptest.Server
	down  atomic.Bool
	calls atomic.Int64
}

func newToggleServer(t *testing.T) *toggleServer {
	ts := &toggleServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)
		if ts.down.Load() {
			panic(http.ErrAbortHandler)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(ts.Close)
	return ts
}

type testEnv struct {
	service  *MonitoringService
	store    *datastore.SiteStore
	notifier *recordingNotifier
	helper   *notifier.NotificationHelper
	history  *fakeHistory
}

func newTestEnv(t *testing.T, mutate func(*config.MonitorConfig, *config.NotificationConfig)) *testEnv {
	t.Helper()
	monitorCfg := config.NewDefaultMonitorConfig()
	monitorCfg.HTTPTimeoutSeconds = 2
	monitorCfg.ScanOnStartup = false
	monitorCfg.ScanOnAdd = false
	notifyCfg := config.NewDefaultNotificationConfig()
	if mutate != nil {
		mutate(&monitorCfg, &notifyCfg)
	}

	logger := zerolog.Nop()
	store := datastore.NewSiteStore(filepath.Join(t.TempDir(), "websites.json"), logger)
	client, err := httpclient.NewHTTPClientBuilder(logger).ForMonitor(monitorCfg).Build()
	require.NoError(t, err)

	rec := &recordingNotifier{}
	helper := notifier.NewNotificationHelper(rec, notifyCfg, logger)
	history := &fakeHistory{}
	chk := checker.NewChecker(client, store, monitorCfg.HTTPTimeout(), logger)
	svc := NewMonitoringService(monitorCfg, store, chk, helper, history, logger)

	return &testEnv{service: svc, store: store, notifier: rec, helper: helper, history: history}
}

func (e *testEnv) scan(t *testing.T) models.ScanSummary {
	t.Helper()
	summary, err := e.service.ScanAll(context.Background())
	require.NoError(t, err)
	e.helper.Wait()
	return summary
}

func TestScan_NoSiteLeftUncheckedAfterPass(t *testing.T) {
	env := newTestEnv(t, nil)
	up := newToggleServer(t)
	down := newToggleServer(t)
	down.down.Store(true)

	_, _, err := env.service.AddSite(up.URL)
	require.NoError(t, err)
	_, _, err = env.service.AddSite(down.URL)
	require.NoError(t, err)

	summary := env.scan(t)

	assert.Equal(t, models.ScanStatusCompleted, summary.Status)
	assert.Equal(t, 2, summary.SitesChecked)
	for _, site := range env.service.ListSites() {
		assert.NotNil(t, site.Status.Up, site.URL)
	}
}

func TestScan_AddThenScanReportsRunning(t *testing.T) {
	env := newTestEnv(t, nil)
	server := newToggleServer(t)

	site, added, err := env.service.AddSite(server.URL)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Nil(t, site.Status.Up)
	assert.Equal(t, "Checking...", site.Status.Message)

	env.scan(t)

	got, err := env.service.Search(context.Background(), server.URL)
	require.NoError(t, err)
	require.NotNil(t, got.Status.Up)
	assert.True(t, *got.Status.Up)
	assert.Equal(t, "Website is Running. Status code: 200", got.Status.Message)
}

func TestScan_ExactlyOneAlertPerDownTransition(t *testing.T) {
	env := newTestEnv(t, nil)
	server := newToggleServer(t)
	_, _, err := env.service.AddSite(server.URL)
	require.NoError(t, err)

	env.scan(t)
	assert.Equal(t, 0, env.notifier.count(notifier.KindDown))

	server.down.Store(true)
	summary := env.scan(t)
	assert.Equal(t, 1, env.notifier.count(notifier.KindDown))
	assert.Equal(t, 1, summary.Notifications)

	// sustained outage does not alert again
	env.scan(t)
	env.scan(t)
	assert.Equal(t, 1, env.notifier.count(notifier.KindDown))

	// recovery is not emailed by default
	server.down.Store(false)
	env.scan(t)
	assert.Equal(t, 0, env.notifier.count(notifier.KindRecovered))

	// a new outage alerts again
	server.down.Store(true)
	env.scan(t)
	assert.Equal(t, 2, env.notifier.count(notifier.KindDown))
}

func TestScan_FirstCheckDownAlerts(t *testing.T) {
	env := newTestEnv(t, nil)
	server := newToggleServer(t)
	server.down.Store(true)
	_, _, err := env.service.AddSite(server.URL)
	require.NoError(t, err)

	env.scan(t)

	assert.Equal(t, 1, env.notifier.count(notifier.KindDown))
}

func TestScan_RecoveryAlertWhenEnabled(t *testing.T) {
	env := newTestEnv(t, func(_ *config.MonitorConfig, nc *config.NotificationConfig) {
		nc.NotifyOnRecovery = true
	})
	server := newToggleServer(t)
	server.down.Store(true)
	_, _, err := env.service.AddSite(server.URL)
	require.NoError(t, err)

	env.scan(t)
	server.down.Store(false)
	env.scan(t)
	env.scan(t)

	assert.Equal(t, 1, env.notifier.count(notifier.KindRecovered))
}

func TestScan_PersistsOncePerPassAndJournals(t *testing.T) {
	env := newTestEnv(t, nil)
	server := newToggleServer(t)
	_, _, err := env.service.AddSite(server.URL)
	require.NoError(t, err)

	env.scan(t)

	reloaded := datastore.NewSiteStore(env.store.Path(), zerolog.Nop())
	require.NoError(t, reloaded.Load())
	sites := reloaded.List()
	require.Len(t, sites, 1)
	assert.True(t, sites[0].Status.IsUp())

	require.Len(t, env.history.completed, 1)
	assert.Equal(t, models.ScanStatusCompleted, env.history.completed[0].Status)
	assert.Equal(t, models.TriggerManual, env.history.completed[0].Trigger)

	last, ok := env.service.LastScan()
	require.True(t, ok)
	assert.Equal(t, 1, last.SitesUp)
}

func TestScan_EmptyStore(t *testing.T) {
	env := newTestEnv(t, nil)

	summary := env.scan(t)

	assert.Equal(t, models.ScanStatusNoTargets, summary.Status)
	assert.Zero(t, env.history.started)
}

func TestScan_BoundedConcurrency(t *testing.T) {
	env := newTestEnv(t, func(mc *config.MonitorConfig, _ *config.NotificationConfig) {
		mc.MaxConcurrentChecks = 2
	})

	var inFlight, peak atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		inFlight.Add(-1)
	}))
	defer server.Close()

	for i := 0; i < 6; i++ {
		_, _, err := env.service.AddSite(server.URL + "/site" + string(rune('a'+i)))
		require.NoError(t, err)
	}

	summary := env.scan(t)

	assert.Equal(t, 6, summary.SitesChecked)
	assert.LessOrEqual(t, peak.Load(), int64(2))
}

func TestScan_CancelledPassIsInterrupted(t *testing.T) {
	env := newTestEnv(t, nil)
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, _, err := env.service.AddSite(server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	summary, err := env.service.scanAll(ctx, models.TriggerManual)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, models.ScanStatusInterrupted, summary.Status)
	site, _ := env.store.Get(server.URL)
	assert.False(t, site.Status.Checked(), "cancelled probes must not update the site")
}

func TestAddSite_Idempotent(t *testing.T) {
	env := newTestEnv(t, nil)

	_, added, err := env.service.AddSite("https://example.com")
	require.NoError(t, err)
	assert.True(t, added)

	_, added, err = env.service.AddSite("https://example.com/")
	require.NoError(t, err)
	assert.False(t, added)

	assert.Len(t, env.service.ListSites(), 1)
}

func TestAddSite_InvalidURL(t *testing.T) {
	env := newTestEnv(t, nil)

	_, _, err := env.service.AddSite("   ")

	assert.ErrorIs(t, err, errorwrapper.ErrInvalidInput)
	assert.Equal(t, 0, env.service.SiteCount())
}

func TestAddSite_TriggersScan(t *testing.T) {
	env := newTestEnv(t, func(mc *config.MonitorConfig, _ *config.NotificationConfig) {
		mc.ScanOnAdd = true
	})
	server := newToggleServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, env.service.Start(ctx))
	defer func() { require.NoError(t, env.service.Stop()) }()

	_, _, err := env.service.AddSite(server.URL)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		site, _ := env.store.Get(server.URL)
		return site.Status.IsUp()
	}, 5*time.Second, 20*time.Millisecond)
}

func TestRemoveSite_UnknownIsNotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	_, _, err := env.service.AddSite("https://a.com")
	require.NoError(t, err)
	before := env.service.ListSites()

	err = env.service.RemoveSite("https://missing.com")

	assert.ErrorIs(t, err, models.ErrSiteNotFound)
	assert.Equal(t, before, env.service.ListSites())
}

func TestRemoveSite_Persists(t *testing.T) {
	env := newTestEnv(t, nil)
	_, _, err := env.service.AddSite("https://a.com")
	require.NoError(t, err)

	require.NoError(t, env.service.RemoveSite("https://a.com"))

	reloaded := datastore.NewSiteStore(env.store.Path(), zerolog.Nop())
	require.NoError(t, reloaded.Load())
	assert.Equal(t, 0, reloaded.Len())
}

func TestSearch_UnmonitoredIsCached(t *testing.T) {
	env := newTestEnv(t, nil)
	server := newToggleServer(t)

	first, err := env.service.Search(context.Background(), server.URL)
	require.NoError(t, err)
	assert.True(t, first.Status.IsUp())

	server.down.Store(true)
	second, err := env.service.Search(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), server.calls.Load())
	assert.Equal(t, 0, env.service.SiteCount(), "search must not add to the store")
	assert.Equal(t, 0, env.notifier.count(notifier.KindDown), "search never notifies")
}

func TestSearch_StoreTakesPrecedenceAfterAdd(t *testing.T) {
	env := newTestEnv(t, nil)
	server := newToggleServer(t)

	searched, err := env.service.Search(context.Background(), server.URL)
	require.NoError(t, err)
	assert.True(t, searched.Status.IsUp())

	_, _, err = env.service.AddSite(server.URL)
	require.NoError(t, err)

	got, err := env.service.Search(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Nil(t, got.Status.Up)
	assert.Equal(t, "Checking...", got.Status.Message)
	assert.Equal(t, 0, env.service.search.Len())
}

func TestSearch_ConcurrentMissesShareOneProbe(t *testing.T) {
	env := newTestEnv(t, nil)
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(100 * time.Millisecond)
	}))
	defer server.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			site, err := env.service.Search(context.Background(), server.URL)
			assert.NoError(t, err)
			assert.True(t, site.Status.IsUp())
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
}

func TestSearch_InvalidURL(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.service.Search(context.Background(), "ftp://example.com")

	assert.ErrorIs(t, err, errorwrapper.ErrInvalidInput)
}

func TestScan_PersistFailureKeepsMemoryAuthoritative(t *testing.T) {
	env := newTestEnv(t, nil)
	server := newToggleServer(t)
	// a directory at the target path makes every rename onto it fail
	require.NoError(t, os.Mkdir(env.store.Path(), 0755))

	_, added, err := env.service.AddSite(server.URL)
	require.NoError(t, err)
	require.True(t, added, "a failed write does not undo the add")

	summary := env.scan(t)

	assert.Equal(t, models.ScanStatusCompleted, summary.Status)
	assert.Equal(t, 1, summary.SitesUp)
	assert.NotEmpty(t, summary.PersistErrMessage)

	site, ok := env.store.Get(server.URL)
	require.True(t, ok)
	assert.True(t, site.Status.IsUp())

	last, ok := env.service.LastScan()
	require.True(t, ok)
	assert.Equal(t, summary.PersistErrMessage, last.PersistErrMessage)
	require.Len(t, env.history.completed, 1)
	assert.NotEmpty(t, env.history.completed[0].PersistErrMessage)
}

func TestLoadedLegacyURLIsFoundBySearchAndAdd(t *testing.T) {
	env := newTestEnv(t, nil)
	legacy := `[{"url":"http://127.0.0.1:1/","status":{"up":false,"message":"Website is Down. Error: stored"}}]`
	require.NoError(t, os.WriteFile(env.store.Path(), []byte(legacy), 0644))
	require.NoError(t, env.store.Load())

	got, err := env.service.Search(context.Background(), "http://127.0.0.1:1/")
	require.NoError(t, err)
	assert.Equal(t, "Website is Down. Error: stored", got.Status.Message)
	assert.Equal(t, 0, env.service.search.Len(), "monitored sites are never probed by search")

	_, added, err := env.service.AddSite("http://127.0.0.1:1/")
	require.NoError(t, err)
	assert.False(t, added)

	sites := env.service.ListSites()
	require.Len(t, sites, 1)
	assert.Equal(t, "http://127.0.0.1:1", sites[0].URL)

	require.NoError(t, env.service.RemoveSite("HTTP://127.0.0.1:1"))
	assert.Equal(t, 0, env.service.SiteCount())
}

func TestLastCompletedScanAndRecentScans(t *testing.T) {
	env := newTestEnv(t, nil)

	_, ok := env.service.LastCompletedScan(context.Background())
	assert.False(t, ok)

	// a pass journaled before a restart is still reported
	started := time.Now().Add(-time.Hour).Truncate(time.Second)
	env.history.completed = append(env.history.completed, models.ScanSummary{
		ScanSessionID: "before-restart",
		Status:        models.ScanStatusCompleted,
		StartedAt:     started,
	})
	at, ok := env.service.LastCompletedScan(context.Background())
	require.True(t, ok)
	assert.True(t, started.Equal(at))

	server := newToggleServer(t)
	_, _, err := env.service.AddSite(server.URL)
	require.NoError(t, err)
	summary := env.scan(t)

	at, ok = env.service.LastCompletedScan(context.Background())
	require.True(t, ok)
	assert.True(t, summary.StartedAt.Equal(at))

	recent, err := env.service.RecentScans(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, summary.ScanSessionID, recent[0].ScanSessionID)
	assert.Equal(t, "before-restart", recent[1].ScanSessionID)
}

func TestSchedulerActiveFollowsStartStop(t *testing.T) {
	env := newTestEnv(t, nil)
	assert.False(t, env.service.SchedulerActive())

	require.NoError(t, env.service.Start(context.Background()))
	assert.True(t, env.service.SchedulerActive())

	require.NoError(t, env.service.Stop())
	assert.False(t, env.service.SchedulerActive())
}
