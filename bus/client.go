package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"marketpilot/internal/types"
)

// Client is the content-watcher/popup side of the bus. The background may
// have been restarted since the previous call, so the client assumes nothing
// about its memory: anything that must persist goes through the storage
// bridge, never a request's side effects on background globals.
type Client struct {
	conn    *websocket.Conn
	timeout time.Duration
	logger  types.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan Response
	closed  bool
}

// Dial connects to the background's websocket endpoint. A zero timeout makes
// Request block until the background answers or the connection dies, which is
// the original hang-forever semantics; callers that want hangs to surface set
// a timeout.
func Dial(ctx context.Context, wsURL string, timeout time.Duration, logger types.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial background at %s: %w", wsURL, err)
	}
	c := &Client{
		conn:    conn,
		timeout: timeout,
		logger:  logger,
		pending: make(map[string]chan Response),
	}
	go c.readLoop()
	return c, nil
}

// Request sends a typed request and blocks for its single response. The
// response envelope's error becomes a Go error; there is no retry.
func (c *Client) Request(ctx context.Context, typ MessageType, payload interface{}) (json.RawMessage, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return nil, err
	}

	id := newRequestID()
	ch := make(chan Response, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("%s: connection closed", typ)
	}
	c.pending[id] = ch
	c.mu.Unlock()

	if err := c.write(Request{ID: id, Type: typ, Payload: raw}); err != nil {
		c.unregister(id)
		return nil, fmt.Errorf("failed to send %s: %w", typ, err)
	}

	var timeoutCh <-chan time.Time
	if c.timeout > 0 {
		timer := time.NewTimer(c.timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case resp := <-ch:
		if !resp.OK {
			return nil, fmt.Errorf("%s: %s", typ, resp.Error)
		}
		return resp.Data, nil
	case <-timeoutCh:
		c.unregister(id)
		return nil, fmt.Errorf("%s: no response within %s", typ, c.timeout)
	case <-ctx.Done():
		c.unregister(id)
		return nil, ctx.Err()
	}
}

// Notify sends a fire-and-forget message. No response will ever arrive and
// none is waited for.
func (c *Client) Notify(typ MessageType, payload interface{}) error {
	raw, err := marshalPayload(payload)
	if err != nil {
		return err
	}
	if err := c.write(Request{Type: typ, Payload: raw}); err != nil {
		return fmt.Errorf("failed to send %s: %w", typ, err)
	}
	return nil
}

// Close tears the connection down and fails every in-flight request.
func (c *Client) Close() error {
	err := c.conn.Close()
	c.failAll("connection closed")
	return err
}

func (c *Client) write(req Request) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(req)
}

func (c *Client) readLoop() {
	for {
		var resp Response
		if err := c.conn.ReadJSON(&resp); err != nil {
			c.logger.Debugf("bus read loop ended: %v", err)
			c.failAll(fmt.Sprintf("connection lost: %v", err))
			return
		}
		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

func (c *Client) unregister(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) failAll(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, ch := range c.pending {
		ch <- Response{ID: id, OK: false, Error: reason}
		delete(c.pending, id)
	}
}

func marshalPayload(payload interface{}) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return raw, nil
}
