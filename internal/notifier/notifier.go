package notifier

import (
	"context"

	"github.com/aleister1102/downtime/internal/models"
)

// Kind is the type of state change being announced.
type Kind string

const (
	KindDown      Kind = "down"
	KindRecovered Kind = "recovered"
)

// Notification announces one state change of one site.
type Notification struct {
	Kind Kind
	Site models.MonitoredSite
}

// Notifier is an interface for sending notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
