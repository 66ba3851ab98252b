package oss

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shareustc/shareustc"
)

const defaultHTTPTimeout = 15 * time.Second

// Client signs and sends STS and OSS requests. It is safe for concurrent use.
type Client struct {
	cfg         Config
	httpClient  *http.Client
	clock       shareustc.Clock
	stsEndpoint string
	logger      *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithClock(clock shareustc.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithSTSEndpoint overrides DefaultSTSEndpoint, e.g. for a VPC endpoint.
func WithSTSEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.stsEndpoint = endpoint
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: defaultHTTPTimeout},
		clock:       shareustc.SystemClock{},
		stsEndpoint: DefaultSTSEndpoint,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Bucket() string   { return c.cfg.Bucket }
func (c *Client) Region() string   { return c.cfg.Region }
func (c *Client) Endpoint() string { return c.cfg.Endpoint }
