package dbsp

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	defaultAddress        = "127.0.0.1:8080"
	defaultUserAgent      = "dbspctl/0.1"
	defaultRequestTimeout = 20 * time.Second
	// DefaultPollInterval is the pause between compile status checks.
	DefaultPollInterval = 500 * time.Millisecond
)

// Option customises a Connection.
type Option func(*Connection)

// WithHTTPClient replaces the HTTP client used for every request. The client
// is used as given: WithRequestTimeout has no effect alongside it, so set
// client.Timeout instead.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Connection) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRequestTimeout sets the per-request timeout of the default HTTP client.
// It is ignored when WithHTTPClient supplies a client.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Connection) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithClock injects the clock used by the compile wait loop.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Connection) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Connection) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithLogger routes request and lifecycle logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Connection) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}
