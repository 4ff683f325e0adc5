package notifier

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aleister1102/downtime/internal/config"
	"github.com/aleister1102/downtime/internal/models"
	"github.com/rs/zerolog"
)

// NotificationHelper decides which state changes are announced and sends them
// in the background so a slow mail server never holds up a scan.
type NotificationHelper struct {
	notifier Notifier
	cfg      config.NotificationConfig
	timeout  time.Duration
	logger   zerolog.Logger

	wg     sync.WaitGroup
	sent   atomic.Int64
	failed atomic.Int64
}

// NewNotificationHelper creates a new NotificationHelper. A nil notifier disables sending.
func NewNotificationHelper(n Notifier, cfg config.NotificationConfig, logger zerolog.Logger) *NotificationHelper {
	return &NotificationHelper{
		notifier: n,
		cfg:      cfg,
		timeout:  cfg.SendTimeout(),
		logger:   logger.With().Str("component", "NotificationHelper").Logger(),
	}
}

// NotifyDown announces that site went down. It reports whether a send was started.
func (nh *NotificationHelper) NotifyDown(site models.MonitoredSite) bool {
	if !nh.cfg.NotifyOnDown {
		nh.logger.Debug().Str("url", site.URL).Msg("Down notifications disabled, skipping")
		return false
	}
	return nh.dispatch(Notification{Kind: KindDown, Site: site})
}

// NotifyRecovered announces that site is reachable again, if enabled.
func (nh *NotificationHelper) NotifyRecovered(site models.MonitoredSite) bool {
	if !nh.cfg.NotifyOnRecovery {
		nh.logger.Info().Str("url", site.URL).Msg("Website recovered")
		return false
	}
	return nh.dispatch(Notification{Kind: KindRecovered, Site: site})
}

func (nh *NotificationHelper) dispatch(n Notification) bool {
	if nh.notifier == nil {
		nh.logger.Warn().Str("url", n.Site.URL).Str("kind", string(n.Kind)).Msg("Notifier not configured, skipping notification")
		return false
	}

	nh.wg.Add(1)
	go func() {
		defer nh.wg.Done()

		// Detached from the scan context: a finished or cancelled scan must not abort delivery.
		ctx, cancel := context.WithTimeout(context.Background(), nh.timeout)
		defer cancel()

		if err := nh.notifier.Notify(ctx, n); err != nil {
			nh.failed.Add(1)
			nh.logger.Error().Err(err).Str("url", n.Site.URL).Str("kind", string(n.Kind)).Msg("Failed to send notification")
			return
		}
		nh.sent.Add(1)
	}()
	return true
}

// Wait blocks until every started notification has finished.
func (nh *NotificationHelper) Wait() {
	nh.wg.Wait()
}

// Stats returns how many notifications were delivered and how many failed.
func (nh *NotificationHelper) Stats() (sent, failed int64) {
	return nh.sent.Load(), nh.failed.Load()
}
