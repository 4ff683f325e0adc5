package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/aleister1102/downtime/internal/common/errorwrapper"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

// HTTPClient wraps net/http.Client with the settings used for liveness probes
type HTTPClient struct {
	client *http.Client
	config HTTPClientConfig
	logger zerolog.Logger
}

// Response is what a probe needs to know about a reply.
type Response struct {
	StatusCode int
	Proto      string
	Duration   time.Duration
}

// NewHTTPClient builds the probe client. Certificate errors are ignored when
// InsecureSkipVerify is set so a site with a bad certificate still counts as up.
func NewHTTPClient(config HTTPClientConfig, logger zerolog.Logger) (*HTTPClient, error) {
	transport, err := newTransport(config, logger)
	if err != nil {
		return nil, err
	}

	client := &http.Client{
		Transport:     transport,
		Timeout:       config.Timeout,
		CheckRedirect: redirectPolicy(config),
	}

	logger.Debug().
		Dur("timeout", config.Timeout).
		Bool("insecure_skip_verify", config.InsecureSkipVerify).
		Bool("follow_redirects", config.FollowRedirects).
		Int("max_redirects", config.MaxRedirects).
		Bool("http2_enabled", config.EnableHTTP2).
		Msg("HTTP client created")

	return &HTTPClient{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

func newTransport(config HTTPClientConfig, logger zerolog.Logger) (*http.Transport, error) {
	dialer := &net.Dialer{Timeout: config.DialTimeout, KeepAlive: config.KeepAlive}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		MaxConnsPerHost:       config.MaxConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ExpectContinueTimeout: config.ExpectContinueTimeout,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: config.InsecureSkipVerify},
	}

	if config.Proxy != "" {
		proxyURL, err := url.Parse(config.Proxy)
		if err != nil {
			return nil, errorwrapper.WrapError(err, "failed to parse proxy URL")
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		logger.Info().Str("proxy", proxyURL.Redacted()).Msg("Probes go through proxy")
	}

	// ConfigureTransport must see the final TLS config
	if config.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			logger.Warn().Err(err).Msg("Failed to configure HTTP/2, falling back to HTTP/1.1")
		}
	}
	return transport, nil
}

// redirectPolicy returns nil to keep net/http's default limit.
func redirectPolicy(config HTTPClientConfig) func(*http.Request, []*http.Request) error {
	switch {
	case !config.FollowRedirects:
		return func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	case config.MaxRedirects > 0:
		limit := config.MaxRedirects
		return func(_ *http.Request, via []*http.Request) error {
			if len(via) >= limit {
				return fmt.Errorf("stopped after %d redirects", limit)
			}
			return nil
		}
	default:
		return nil
	}
}

// Get issues a single GET against rawURL. Any HTTP reply, whatever its status code,
// is a successful Response; only transport level failures are returned as errors.
func (c *HTTPClient) Get(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errorwrapper.NewNetworkError(rawURL, err)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	req.Header.Set("Accept", "*/*")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errorwrapper.NewNetworkError(rawURL, err)
	}
	defer resp.Body.Close()

	// Drain a bounded amount so the connection can be reused.
	if c.config.MaxDrainBytes > 0 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.config.MaxDrainBytes))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Proto:      resp.Proto,
		Duration:   time.Since(start),
	}, nil
}

// Timeout returns the client level request timeout.
func (c *HTTPClient) Timeout() time.Duration {
	return c.config.Timeout
}

// CloseIdleConnections releases pooled connections, used at shutdown.
func (c *HTTPClient) CloseIdleConnections() {
	c.client.CloseIdleConnections()
}
