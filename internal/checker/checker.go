package checker

import (
	"context"
	"errors"
	"time"

	"github.com/aleister1102/downtime/internal/common/errorwrapper"
	"github.com/aleister1102/downtime/internal/httpclient"
	"github.com/aleister1102/downtime/internal/models"
	"github.com/rs/zerolog"
)

// Transition classifies how a check changed a site's reachability.
type Transition int

const (
	TransitionNone Transition = iota
	// TransitionDown is a move into down from up or from never checked.
	TransitionDown
	// TransitionRecovered is down to up.
	TransitionRecovered
	// TransitionFirstUp is the first successful check of a new site.
	TransitionFirstUp
)

func (t Transition) String() string {
	switch t {
	case TransitionDown:
		return "down"
	case TransitionRecovered:
		return "recovered"
	case TransitionFirstUp:
		return "first_up"
	default:
		return "none"
	}
}

// StatusApplier is the part of the website store a check writes to.
type StatusApplier interface {
	ApplyStatus(url string, status models.SiteStatus) (prev models.SiteStatus, ok bool)
}

// Prober performs the HTTP request behind a check.
type Prober interface {
	Get(ctx context.Context, url string) (*httpclient.Response, error)
}

// StatusResult is the outcome of one check of one monitored site.
type StatusResult struct {
	Site       models.MonitoredSite
	Previous   models.SiteStatus
	Current    models.SiteStatus
	Transition Transition
	// Applied is false when the site disappeared from the store during the probe.
	Applied bool
}

// Checker probes websites and records their reachability.
type Checker struct {
	prober  Prober
	store   StatusApplier
	timeout time.Duration
	logger  zerolog.Logger
}

// NewChecker creates a Checker. timeout bounds each probe in addition to the client's own timeout.
func NewChecker(prober Prober, store StatusApplier, timeout time.Duration, logger zerolog.Logger) *Checker {
	return &Checker{
		prober:  prober,
		store:   store,
		timeout: timeout,
		logger:  logger.With().Str("component", "Checker").Logger(),
	}
}

// Probe performs a single GET against url and classifies it. It never fails:
// any HTTP reply is up, any transport error is down.
func (c *Checker) Probe(ctx context.Context, url string) models.SiteStatus {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.prober.Get(ctx, url)
	if err != nil {
		if errors.Is(err, errorwrapper.ErrTimeout) {
			c.logger.Debug().Str("url", url).Dur("timeout", c.timeout).Msg("Probe timed out")
		}
		return models.DownStatus(describe(err))
	}
	return models.RunningStatus(resp.StatusCode)
}

// Check probes site and applies the new status to the store.
// If ctx was cancelled during the probe the store is left alone and ctx.Err() is returned.
func (c *Checker) Check(ctx context.Context, site models.MonitoredSite) (StatusResult, error) {
	current := c.Probe(ctx, site.URL)
	if err := ctx.Err(); err != nil {
		return StatusResult{}, err
	}

	result := StatusResult{
		Site:    models.MonitoredSite{URL: site.URL, Status: current},
		Current: current,
	}

	prev, ok := c.store.ApplyStatus(site.URL, current)
	if !ok {
		c.logger.Debug().Str("url", site.URL).Msg("Website removed during check, result dropped")
		return result, nil
	}

	result.Applied = true
	result.Previous = prev
	result.Transition = ClassifyTransition(prev, current)

	event := c.logger.Debug()
	switch result.Transition {
	case TransitionDown:
		event = c.logger.Warn()
	case TransitionRecovered:
		event = c.logger.Info()
	}
	event.Str("url", site.URL).
		Str("transition", result.Transition.String()).
		Str("status", current.Message).
		Msg("Website checked")

	return result, nil
}

// ClassifyTransition compares the replaced status with the new one.
func ClassifyTransition(prev, current models.SiteStatus) Transition {
	switch {
	case current.IsDown() && !prev.IsDown():
		return TransitionDown
	case current.IsUp() && prev.IsDown():
		return TransitionRecovered
	case current.IsUp() && !prev.Checked():
		return TransitionFirstUp
	default:
		return TransitionNone
	}
}

func describe(err error) string {
	var netErr *errorwrapper.NetworkError
	if errors.As(err, &netErr) && netErr.Reason != "" {
		return netErr.Reason
	}
	return err.Error()
}
