// Package connectivity answers "is the news API reachable right now" before any fetch starts.
package connectivity

import (
	"context"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/tzidis/newsapp/internal/logger"
)

const DefaultDialTimeout = 3 * time.Second

// Checker probes network reachability.
type Checker interface {
	Connected(ctx context.Context) bool
}

// Static always reports the same answer.
type Static bool

func (s Static) Connected(context.Context) bool { return bool(s) }

// DialChecker reports connectivity by opening a TCP connection to the API host.
type DialChecker struct {
	address string
	timeout time.Duration
	log     logger.Logger
	dial    func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewDialChecker derives host:port from endpoint, e.g. https://content.guardianapis.com/search.
func NewDialChecker(endpoint string, timeout time.Duration, log logger.Logger) (*DialChecker, error) {
	addr, err := dialAddress(endpoint)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	d := &net.Dialer{Timeout: timeout}
	return &DialChecker{
		address: addr,
		timeout: timeout,
		log:     logger.Ensure(log),
		dial:    d.DialContext,
	}, nil
}

// Address is the host:port the checker dials.
func (c *DialChecker) Address() string { return c.address }

// Connected dials the API host once.
func (c *DialChecker) Connected(ctx context.Context) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dial(ctx, "tcp", c.address)
	if err != nil {
		c.log.WarnObj("network unreachable", "connectivity", map[string]any{
			"address": c.address,
			"error":   err.Error(),
		})
		return false
	}
	_ = conn.Close()
	return true
}

func dialAddress(endpoint string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", err
	}
	if u.Hostname() == "" {
		return "", &net.AddrError{Err: "endpoint has no host", Addr: endpoint}
	}
	port := u.Port()
	if port == "" {
		switch strings.ToLower(u.Scheme) {
		case "http":
			port = "80"
		default:
			port = "443"
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}
