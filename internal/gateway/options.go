package gateway

import "time"

const (
	DefaultRetryInterval  = 5 * time.Second
	DefaultMaxRetries     = 5
	DefaultReadTimeout    = 3 * time.Second
	DefaultConnectTimeout = 10 * time.Second
)

// Options configures retry and timeout policy. Zero values take defaults.
type Options struct {
	// RetryInterval is the fixed delay between connection attempts.
	RetryInterval time.Duration
	// MaxRetries is the total number of connection attempts per cycle.
	MaxRetries int
	// ReadTimeout bounds every individual remote read.
	ReadTimeout time.Duration
	// ConnectTimeout bounds each connection handshake.
	ConnectTimeout time.Duration
	// ReconnectInterval, when positive, starts a new connection cycle this
	// long after the gateway degrades. Zero leaves it degraded until restart.
	ReconnectInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.RetryInterval <= 0 {
		o.RetryInterval = DefaultRetryInterval
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = DefaultReadTimeout
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.ReconnectInterval < 0 {
		o.ReconnectInterval = 0
	}
	return o
}
