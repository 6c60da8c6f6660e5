package client

import (
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultStartupWait  = 30 * time.Second
)

// Options configure a Client. Zero values fall back to defaults; APIKey is
// the only required field.
type Options struct {
	ServerURL    string
	APIKey       string
	HTTPClient   *http.Client
	PollInterval time.Duration
	StartupWait  time.Duration
	Clock        clockwork.Clock
}

// Client drives one play session against the dmhub server. It is
// single-threaded by design: one credential, one session identity, one turn
// in flight at a time.
type Client struct {
	transport    *transport
	clock        clockwork.Clock
	pollInterval time.Duration
	startupWait  time.Duration

	// identity is the sum-typed session state: nil means no session,
	// non-nil means fully established. It is never partially set.
	identity *SessionRef
}

// New constructs a Client. It fails with ErrMissingAPIKey when no credential
// is supplied; every remote call requires one.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.StartupWait <= 0 {
		opts.StartupWait = defaultStartupWait
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Client{
		transport:    newTransport(opts.ServerURL, opts.APIKey, opts.HTTPClient),
		clock:        opts.Clock,
		pollInterval: opts.PollInterval,
		startupWait:  opts.StartupWait,
	}, nil
}
