package coingecko

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// baseURL is the public CoinGecko API host.
const baseURL = "https://api.coingecko.com"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=coingecko_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the CoinGecko API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP httpClient.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// query contains additional query parameters to be sent with each request.
	query url.Values
	// log receives request diagnostics.
	log *zap.Logger
	// logBody dumps every raw upstream body at debug level.
	logBody bool
}

// ClientOption is a configuration option for the CoinGecko API client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithDemoAPIKey authenticates requests with a CoinGecko demo key.
// An empty key leaves requests anonymous.
func WithDemoAPIKey(key string) ClientOption {
	return func(c *Client) {
		if key != "" {
			// https://docs.coingecko.com/v3.0.1/reference/authentication
			c.header.Set("x-cg-demo-api-key", key)
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(log *zap.Logger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithBodyLogging logs the raw upstream body of every response.
func WithBodyLogging(enabled bool) ClientOption {
	return func(c *Client) {
		c.logBody = enabled
	}
}

// NewClient creates a new CoinGecko API client.
func NewClient(options ...ClientOption) (*Client, error) {
	var client = &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		query:      url.Values{},
		log:        zap.NewNop(),
	}
	for _, option := range options {
		option(client)
	}
	if client.baseURL == "" {
		return nil, errors.New("coingecko: empty base URL")
	}
	if _, err := url.Parse(client.baseURL); err != nil {
		return nil, err
	}
	if client.httpClient == nil {
		return nil, errors.New("coingecko: nil HTTP client")
	}
	return client, nil
}

func (c *Client) Name() string { return "CoinGecko" }
