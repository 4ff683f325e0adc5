package httpclient

import (
	"time"

	"github.com/aleister1102/downtime/internal/config"
)

// HTTPClientConfig holds the transport settings of the probe client
type HTTPClientConfig struct {
	Timeout               time.Duration
	InsecureSkipVerify    bool
	FollowRedirects       bool
	MaxRedirects          int
	UserAgent             string
	Proxy                 string
	EnableHTTP2           bool
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	MaxConnsPerHost       int
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration
	ExpectContinueTimeout time.Duration
	DialTimeout           time.Duration
	KeepAlive             time.Duration
	// MaxDrainBytes bounds how much of a response body is read before the connection is released.
	MaxDrainBytes int64
}

// DefaultHTTPClientConfig returns the probe defaults
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:               config.DefaultMonitorHTTPTimeoutSeconds * time.Second,
		InsecureSkipVerify:    true,
		FollowRedirects:       true,
		MaxRedirects:          config.DefaultHTTPClientMaxRedirects,
		UserAgent:             config.DefaultHTTPClientUserAgent,
		EnableHTTP2:           true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   4,
		MaxConnsPerHost:       0,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DialTimeout:           10 * time.Second,
		KeepAlive:             30 * time.Second,
		MaxDrainBytes:         64 * 1024,
	}
}
