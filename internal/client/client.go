// Package client talks to a pdb server over the line protocol.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/frudas24/pdb/internal/capture"
	"github.com/frudas24/pdb/internal/failure"
	"github.com/frudas24/pdb/internal/input"
	"github.com/frudas24/pdb/internal/protocol"
	"github.com/frudas24/pdb/internal/window"
)

// DefaultAddr is the server endpoint used when none is given.
const DefaultAddr = "127.0.0.1:5037"

// DefaultTimeout bounds dialing and each request.
const DefaultTimeout = 10 * time.Second

// Client holds one connection. Requests are serialized: the protocol allows
// one outstanding request per connection.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	r       *bufio.Reader
	timeout time.Duration
	broken  error
}

// Dial connects to addr. An empty addr uses DefaultAddr; timeout <= 0 uses DefaultTimeout.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	if addr == "" {
		addr = DefaultAddr
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, failure.Wrap(failure.ConnectionError, err, "dial "+addr)
	}
	return &Client{conn: conn, r: bufio.NewReader(conn), timeout: timeout}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Addr returns the remote address.
func (c *Client) Addr() string {
	return c.conn.RemoteAddr().String()
}

// Do sends one command and waits for its response. ERR responses are
// returned as *failure.Error; transport problems as ConnectionError, after
// which the client is unusable.
func (c *Client) Do(ctx context.Context, cmd protocol.Command) (protocol.Payload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken != nil {
		return nil, c.broken
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Now())
	})
	defer stop()

	resp, err := c.roundTrip(cmd)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(ctxErr, err)
		}
		c.broken = failure.Wrap(failure.ConnectionError, err, cmd.Name())
		_ = c.conn.Close()
		return nil, c.broken
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return resp.Payload, nil
}

func (c *Client) roundTrip(cmd protocol.Command) (protocol.Response, error) {
	if err := protocol.WriteCommand(c.conn, cmd); err != nil {
		return protocol.Response{}, fmt.Errorf("write: %w", err)
	}
	resp, err := protocol.ReadResponse(c.r, cmd)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("read: %w", err)
	}
	return resp, nil
}

// Ping verifies the server answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Do(ctx, protocol.Ping{})
	return err
}

// Devices lists the server's windows.
func (c *Client) Devices(ctx context.Context) ([]window.Info, error) {
	p, err := c.Do(ctx, protocol.ListDevices{})
	if err != nil {
		return nil, err
	}
	return p.(protocol.DeviceList).Devices, nil
}

// Click clicks at a client point.
func (c *Client) Click(ctx context.Context, h window.Handle, x, y int) error {
	_, err := c.Do(ctx, protocol.Click{Handle: h, X: x, Y: y})
	return err
}

// Swipe drags between two client points.
func (c *Client) Swipe(ctx context.Context, h window.Handle, x1, y1, x2, y2, durationMs int) error {
	_, err := c.Do(ctx, protocol.Swipe{Handle: h, X1: x1, Y1: y1, X2: x2, Y2: y2, DurationMs: durationMs})
	return err
}

// Text types a string.
func (c *Client) Text(ctx context.Context, h window.Handle, text string) error {
	_, err := c.Do(ctx, protocol.Text{Handle: h, Text: text})
	return err
}

// Key presses a named key.
func (c *Client) Key(ctx context.Context, h window.Handle, k input.Key) error {
	_, err := c.Do(ctx, protocol.Key{Handle: h, Key: k})
	return err
}

// Screenshot captures a window on the server.
func (c *Client) Screenshot(ctx context.Context, h window.Handle) (*capture.Bitmap, error) {
	p, err := c.Do(ctx, protocol.Screenshot{Handle: h})
	if err != nil {
		return nil, err
	}
	return p.(protocol.Image).Bitmap, nil
}

// Size returns the client-area size.
func (c *Client) Size(ctx context.Context, h window.Handle) (int, int, error) {
	p, err := c.Do(ctx, protocol.Size{Handle: h})
	if err != nil {
		return 0, 0, err
	}
	d := p.(protocol.Dimensions)
	return d.Width, d.Height, nil
}

// Focus brings a window to the foreground.
func (c *Client) Focus(ctx context.Context, h window.Handle) error {
	_, err := c.Do(ctx, protocol.Focus{Handle: h})
	return err
}
