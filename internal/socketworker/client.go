package socketworker

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/bayesgrid/internal/ctxlog"
	"github.com/vk/bayesgrid/internal/worker"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// ErrDisconnected is returned for requests still in flight when the
// connection to the server drops.
var ErrDisconnected = errors.New("socketworker: connection lost")

// DialTimeout bounds the wait for the first connection when ctx has no
// earlier deadline.
const DialTimeout = 15 * time.Second

// DialOptions tunes Dial.
type DialOptions struct {
	Namespace          string
	InsecureSkipVerify bool
}

// Client is a worker.Worker backed by a remote Server.
type Client struct {
	io     *socket.Socket
	url    string
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]chan []byte
	closed  bool
}

var _ worker.Worker = (*Client)(nil)

// Dial connects to a socketworker server and waits for the connection to be
// established.
func Dial(ctx context.Context, rawURL string, dopts DialOptions) (*Client, error) {
	logger := ctxlog.FromContext(ctx).With("component", "socketworker", "url", rawURL)
	logger.Info("Connecting to sampling worker...")

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		opts.SetPath(parsedURL.Path)
	}
	if dopts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))
	// A reconnected session would not know the requests in flight.
	opts.SetReconnection(false)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	namespace := dopts.Namespace
	if namespace == "" {
		namespace = "/"
	}

	c := &Client{
		io:      manager.Socket(namespace, opts),
		url:     rawURL,
		logger:  logger,
		pending: make(map[string]chan []byte),
	}

	connectChan := make(chan error, 1)
	c.io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to sampling worker.", "sid", c.io.Id())
		connectChan <- nil
	})
	c.io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("%v", errs[0])
		}
		connectChan <- err
	})
	c.io.On(types.EventName(EventSampled), c.onSampled)
	c.io.On(types.EventName("disconnect"), c.onDisconnect)

	c.io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			c.io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return c, nil
	case <-ctx.Done():
		c.io.Disconnect()
		return nil, fmt.Errorf("waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(DialTimeout):
		c.io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", DialTimeout)
	}
}

func (c *Client) onSampled(args ...any) {
	env, err := decodeEnvelope(args)
	if err != nil {
		c.logger.Warn("Dropping malformed response.", "error", err)
		return
	}
	c.mu.Lock()
	ch, ok := c.pending[env.ID]
	delete(c.pending, env.ID)
	c.mu.Unlock()
	if !ok {
		c.logger.Debug("Response for unknown request.", "requestID", env.ID)
		return
	}
	ch <- env.Payload
}

// onDisconnect closes the client and fails every pending request.
func (c *Client) onDisconnect(reason ...any) {
	c.mu.Lock()
	c.closed = true
	pending := c.pending
	c.pending = make(map[string]chan []byte)
	c.mu.Unlock()

	if len(pending) > 0 {
		c.logger.Warn("Connection lost with requests in flight.", "reason", reason, "pending", len(pending))
	} else {
		c.logger.Info("Disconnected from sampling worker.", "reason", reason)
	}
	for _, ch := range pending {
		close(ch)
	}
}

// Sample sends the request and waits for the matching response, for the
// connection to drop or for ctx to be done.
func (c *Client) Sample(ctx context.Context, request []byte) ([]byte, error) {
	id := uuid.NewString()
	ch := make(chan []byte, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, worker.ErrWorkerClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	out, err := encodeEnvelope(id, request)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Emitting sampling request.", "url", c.url, "requestID", id)
	if err := c.io.Emit(EventSample, out); err != nil {
		return nil, fmt.Errorf("emitting request: %w", err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("%s: %w", c.url, ErrDisconnected)
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close disconnects from the server. Later calls to Sample fail with
// worker.ErrWorkerClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.io.Disconnect()
	return nil
}
