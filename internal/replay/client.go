package replay

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"
)

// Client polls a replay server.
type Client struct {
	addr    string
	timeout time.Duration
}

// NewClient creates a client for the server at addr.
func NewClient(addr string) *Client {
	return &Client{addr: addr, timeout: 10 * time.Second}
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Poll sends mode, reads the whole response and decodes it. It returns
// ErrNoRecord when the server has nothing yet and an error wrapping
// ErrBadFrame for corrupt or partial responses.
func (c *Client) Poll(ctx context.Context, mode Mode) ([]*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("replay: cannot connect to %s: %w", c.addr, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if _, err := io.WriteString(conn, mode.Token()+"\n"); err != nil {
		return nil, fmt.Errorf("replay: cannot send mode: %w", err)
	}
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		if err := cw.CloseWrite(); err != nil {
			return nil, fmt.Errorf("replay: cannot close write side: %w", err)
		}
	}
	return ReadFrame(conn)
}
