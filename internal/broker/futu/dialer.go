// Package futu talks to a Futu OpenD gateway over its TCP protocol using
// JSON-encoded bodies.
package futu

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/newthinker/klineprompt/internal/broker"
	"go.uber.org/zap"
)

// Config holds OpenD connection settings.
type Config struct {
	Host     string
	Port     int
	Timeout  time.Duration
	ClientID string
	Logger   *zap.Logger
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Dialer opens one OpenD connection per session.
type Dialer struct {
	cfg Config
}

// New creates a dialer, filling unset fields with OpenD defaults.
func New(cfg Config) *Dialer {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 11111
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "klineprompt"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Dialer{cfg: cfg}
}

// Name returns the dialer name.
func (d *Dialer) Name() string {
	return "futu"
}

// OpenQuote connects a quote session.
func (d *Dialer) OpenQuote(ctx context.Context) (broker.QuoteSession, error) {
	c, err := dial(ctx, d.cfg)
	if err != nil {
		return nil, err
	}
	return &quoteSession{c: c}, nil
}

// OpenTrade connects a trade session and selects the first account matching
// filter.
func (d *Dialer) OpenTrade(ctx context.Context, filter broker.TradeFilter) (broker.TradeSession, error) {
	c, err := dial(ctx, d.cfg)
	if err != nil {
		return nil, err
	}
	s, err := newTradeSession(ctx, c, filter)
	if err != nil {
		c.close()
		return nil, err
	}
	return s, nil
}
