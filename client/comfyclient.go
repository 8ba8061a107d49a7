package client

import (
	"crypto/sha256"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ComfyClient is the top level object that allows for interaction with the
// server. It holds no mutable state after construction and may be shared.
type ComfyClient struct {
	hostname  string
	port      int
	clientid  string
	transport *transport
	dialer    *WebSocketDialer
}

type Option func(*ComfyClient)

// WithClientID overrides the client id used when subscribing to events.
func WithClientID(id string) Option {
	return func(c *ComfyClient) {
		if id != "" {
			c.clientid = id
		}
	}
}

// WithHTTPClient sets the underlying http client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *ComfyClient) {
		c.transport.httpclient = h
	}
}

// WithWebSocketRetry makes Listen retry failed handshakes up to maxRetry
// times, backing off exponentially from baseDelay up to maxDelay.
func WithWebSocketRetry(maxRetry int, baseDelay, maxDelay time.Duration) Option {
	return func(c *ComfyClient) {
		c.dialer.MaxRetry = maxRetry
		c.dialer.BaseDelay = baseDelay
		c.dialer.MaxDelay = maxDelay
	}
}

// NewComfyClient creates a client for the server at hostname:port. Unless
// WithClientID is given, the id is derived from the executable path.
func NewComfyClient(hostname string, port int, opts ...Option) (*ComfyClient, error) {
	c := &ComfyClient{
		hostname: hostname,
		port:     port,
		transport: &transport{
			hostname:   hostname,
			port:       port,
			httpclient: &http.Client{},
		},
		dialer: &WebSocketDialer{
			Dialer:    *websocketDefaultDialer(),
			BaseDelay: time.Second,
			MaxDelay:  time.Minute,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.clientid == "" {
		id, err := DefaultClientID()
		if err != nil {
			return nil, err
		}
		c.clientid = id
	}
	return c, nil
}

// DefaultClientID derives a stable id from the absolute path of the running
// executable.
func DefaultClientID() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	abs, err := filepath.Abs(exe)
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	return ClientIDForPath(abs), nil
}

// ClientIDForPath formats the first 16 bytes of the SHA-256 of path as a
// UUID.
func ClientIDForPath(path string) string {
	sum := sha256.Sum256([]byte(path))
	id, _ := uuid.FromBytes(sum[:16])
	return id.String()
}

func (c *ComfyClient) Hostname() string { return c.hostname }

func (c *ComfyClient) Port() int { return c.port }

// ClientID returns the id sent when subscribing to the event stream.
func (c *ComfyClient) ClientID() string {
	return c.clientid
}

// BaseURL returns the root http url of the server, with a trailing slash.
func (c *ComfyClient) BaseURL() string {
	return c.transport.url("")
}

// WebSocketURL returns the event stream url for this client id.
func (c *ComfyClient) WebSocketURL() string {
	q := url.Values{}
	q.Set("clientId", c.clientid)
	return fmt.Sprintf("ws://%s:%d/ws?%s", c.hostname, c.port, q.Encode())
}

// URLForImage returns the url the server serves image from.
func (c *ComfyClient) URLForImage(image Image) string {
	q := url.Values{}
	q.Set("filename", image.Filename)
	q.Set("subfolder", image.Subfolder)
	q.Set("type", image.Type)
	return c.transport.url("api/view?" + q.Encode())
}
