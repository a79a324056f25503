// Package client implements the user-facing side of a chat session: dial a
// node, run the CONNECT_CLIENT handshake, and exchange framed messages.
package client

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/logging"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/proto"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/wire"
)

// ErrAlreadyConnected means the server refused the handshake because a live
// session with the same userId exists.
var ErrAlreadyConnected = errors.New("client: user already connected")

// Config carries the settings for one connection attempt.
type Config struct {
	Addr           string
	User           proto.User
	ConnectTimeout time.Duration
	MaxPayload     int
	Logger         logging.Logger
}

// Client is one established session with a chat node. Send may be called
// from any goroutine; Recv and Expect are single-consumer.
type Client struct {
	conn    net.Conn
	reader  *wire.Reader
	writeMu sync.Mutex
	user    proto.User
	logger  logging.Logger
}

// Dial connects to a node, sends CONNECT_CLIENT and waits for CONNECTED.
func Dial(cfg Config) (*Client, error) {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}

	nc, err := net.DialTimeout("tcp", cfg.Addr, cfg.ConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Addr, err)
	}

	c := &Client{
		conn:   nc,
		reader: wire.NewReader(nc, cfg.MaxPayload),
		user:   cfg.User,
		logger: cfg.Logger,
	}

	user := cfg.User
	if err := c.Send(&proto.ConnectClient{User: &user}); err != nil {
		_ = nc.Close()
		return nil, fmt.Errorf("send CONNECT_CLIENT: %w", err)
	}

	_ = nc.SetReadDeadline(time.Now().Add(cfg.ConnectTimeout))
	f, err := c.reader.Next()
	if err != nil {
		_ = nc.Close()
		return nil, fmt.Errorf("await CONNECTED: %w", err)
	}
	_ = nc.SetReadDeadline(time.Time{})

	if proto.Purpose(f.Purpose) != proto.PurposeConnected {
		_ = nc.Close()
		return nil, fmt.Errorf("handshake reply %s, want CONNECTED", f.Purpose)
	}
	var resp proto.ConnectResponse
	if err := resp.Unmarshal(f.Payload); err != nil {
		_ = nc.Close()
		return nil, fmt.Errorf("decode CONNECTED: %w", err)
	}
	switch resp.Result {
	case proto.ConnectOK:
	case proto.ConnectAlreadyConnected:
		_ = nc.Close()
		return nil, ErrAlreadyConnected
	default:
		_ = nc.Close()
		return nil, fmt.Errorf("connect refused: %s", resp.Result)
	}

	c.logger.WithFields(logging.Fields{
		"user_id": cfg.User.UserID,
		"addr":    cfg.Addr,
	}).Debug("Client session established")
	return c, nil
}

// User returns the identity the session was opened with.
func (c *Client) User() proto.User { return c.user }

// Send writes one payload-carrying frame.
func (c *Client) Send(pl proto.Payload) error {
	return c.SendFrame(pl.Purpose(), pl.Marshal())
}

// SendFrame writes one frame. The payload may be nil for empty-bodied
// purposes such as PING.
func (c *Client) SendFrame(purpose proto.Purpose, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return wire.WriteFrame(c.conn, string(purpose), payload)
}

// Recv returns the next frame, waiting up to timeout.
func (c *Client) Recv(timeout time.Duration) (wire.Frame, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	defer func() { _ = c.conn.SetReadDeadline(time.Time{}) }()
	return c.reader.Next()
}

// Expect reads until a frame other than PING arrives, answering PINGs along
// the way, and decodes it. A frame of any other purpose than the wanted one
// is an error. The wanted purpose must carry a payload.
func (c *Client) Expect(purpose proto.Purpose, timeout time.Duration) (proto.Payload, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("no %s frame within %v", purpose, timeout)
		}
		f, err := c.Recv(remaining)
		if err != nil {
			return nil, err
		}
		switch proto.Purpose(f.Purpose) {
		case proto.PurposePing:
			if err := c.SendFrame(proto.PurposePong, nil); err != nil {
				return nil, err
			}
		case purpose:
			return proto.Decode(purpose, f.Payload)
		default:
			return nil, fmt.Errorf("got %s frame, want %s", f.Purpose, purpose)
		}
	}
}

// Close announces the exit and closes the stream.
func (c *Client) Close() error {
	_ = c.Send(&proto.HangUp{Reason: proto.ReasonExit})
	return c.conn.Close()
}
