// Package httpclient holds the shared resty client used for outbound requests.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultConnectTimeout = 15 * time.Second
	DefaultReadTimeout    = 10 * time.Second
	DefaultUserAgent      = "newsapp/1.0"
)

// Client is the minimal HTTP surface fetchers and publishers depend on.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error)
	Do(ctx context.Context, method, url string, headers map[string]string, body any) (*resty.Response, error)
}

// Options tunes the resty client.
type Options struct {
	// ConnectTimeout bounds dialing the remote host.
	ConnectTimeout time.Duration
	// ReadTimeout bounds waiting for the response headers once the request is written.
	ReadTimeout time.Duration
	UserAgent   string
}

type restyClient struct {
	client *resty.Client
}

// NewRestyClient builds a resty backed client with an overall timeout only.
func NewRestyClient(timeout time.Duration) Client {
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", DefaultUserAgent)
	return &restyClient{client: c}
}

// NewRestyClientWithOptions builds a resty client with separate connect and read timeouts.
// The overall request deadline is the sum of both.
func NewRestyClientWithOptions(opts Options) Client {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	dialer := &net.Dialer{Timeout: opts.ConnectTimeout}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		ResponseHeaderTimeout: opts.ReadTimeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}

	c := resty.New().
		SetTransport(transport).
		SetTimeout(opts.ConnectTimeout+opts.ReadTimeout).
		SetHeader("User-Agent", opts.UserAgent)
	return &restyClient{client: c}
}

// Get issues a GET request with the given headers.
func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error) {
	return c.Do(ctx, http.MethodGet, url, headers, nil)
}

// Do issues a request with an optional body. Non-2xx responses are not errors.
func (c *restyClient) Do(ctx context.Context, method, url string, headers map[string]string, body any) (*resty.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req := c.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	if body != nil {
		req.SetBody(body)
	}
	return req.Execute(method, url)
}
