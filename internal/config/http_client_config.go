package config

// HTTPClientConfig defines how the probe client is built
type HTTPClientConfig struct {
	UserAgent          string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	FollowRedirects    bool   `json:"follow_redirects" yaml:"follow_redirects"`
	MaxRedirects       int    `json:"max_redirects,omitempty" yaml:"max_redirects,omitempty" validate:"omitempty,min=0"`
	EnableHTTP2        bool   `json:"enable_http2" yaml:"enable_http2"`
	Proxy              string `json:"proxy,omitempty" yaml:"proxy,omitempty" validate:"omitempty,url"`
}

// NewDefaultHTTPClientConfig creates default probe client configuration.
// Certificates are not validated: an expired certificate still counts as reachable.
func NewDefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		UserAgent:          DefaultHTTPClientUserAgent,
		InsecureSkipVerify: true,
		FollowRedirects:    true,
		MaxRedirects:       DefaultHTTPClientMaxRedirects,
		EnableHTTP2:        true,
	}
}
