package httpclient

import (
	"time"

	"github.com/aleister1102/downtime/internal/config"
	"github.com/rs/zerolog"
)

// HTTPClientBuilder builds the probe client step by step.
type HTTPClientBuilder struct {
	config HTTPClientConfig
	logger zerolog.Logger
}

// NewHTTPClientBuilder starts from DefaultHTTPClientConfig.
func NewHTTPClientBuilder(logger zerolog.Logger) *HTTPClientBuilder {
	return &HTTPClientBuilder{
		config: DefaultHTTPClientConfig(),
		logger: logger.With().Str("component", "HTTPClient").Logger(),
	}
}

// WithAppConfig applies the http_client_config section.
func (b *HTTPClientBuilder) WithAppConfig(cfg config.HTTPClientConfig) *HTTPClientBuilder {
	b.config.UserAgent = cfg.UserAgent
	b.config.EnableHTTP2 = cfg.EnableHTTP2
	return b.WithInsecureSkipVerify(cfg.InsecureSkipVerify).
		WithFollowRedirects(cfg.FollowRedirects).
		WithMaxRedirects(cfg.MaxRedirects).
		WithProxy(cfg.Proxy)
}

// ForMonitor takes the probe timeout from monitor_config and sizes the idle pool
// so a full pass of concurrent checks can reuse connections.
func (b *HTTPClientBuilder) ForMonitor(cfg config.MonitorConfig) *HTTPClientBuilder {
	b.WithTimeout(cfg.HTTPTimeout())
	if cfg.MaxConcurrentChecks > b.config.MaxIdleConns {
		b.config.MaxIdleConns = cfg.MaxConcurrentChecks
	}
	return b
}

func (b *HTTPClientBuilder) WithTimeout(timeout time.Duration) *HTTPClientBuilder {
	b.config.Timeout = timeout
	return b
}

func (b *HTTPClientBuilder) WithInsecureSkipVerify(skip bool) *HTTPClientBuilder {
	b.config.InsecureSkipVerify = skip
	return b
}

func (b *HTTPClientBuilder) WithFollowRedirects(follow bool) *HTTPClientBuilder {
	b.config.FollowRedirects = follow
	return b
}

// WithMaxRedirects caps redirect chains; 0 leaves net/http's own limit of 10.
func (b *HTTPClientBuilder) WithMaxRedirects(max int) *HTTPClientBuilder {
	b.config.MaxRedirects = max
	return b
}

func (b *HTTPClientBuilder) WithProxy(proxy string) *HTTPClientBuilder {
	b.config.Proxy = proxy
	return b
}

// Build creates the client. It fails only on an unparsable proxy URL.
func (b *HTTPClientBuilder) Build() (*HTTPClient, error) {
	return NewHTTPClient(b.config, b.logger)
}
