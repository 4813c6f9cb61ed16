package control

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/dgnsrekt/netchat_agent/internal/types"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// Client is the panel side of the control protocol: dial once, then issue
// request/reply message pairs. Calls are serialized; the protocol pairs one
// reply to one request.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
}

// Dial connects to the agent's control endpoint, e.g.
// "ws://127.0.0.1:9400/control".
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, _, err := ws.Dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("control: dial %s: %w", url, err)
	}
	return &Client{conn: conn}, nil
}

// Close tears down the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

// call sends one message and decodes the single reply frame into out.
func (c *Client) call(msg Message, out any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("control: marshal message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := wsutil.WriteClientText(c.conn, data); err != nil {
		return fmt.Errorf("control: send %s: %w", msg.Type, err)
	}
	reply, err := wsutil.ReadServerText(c.conn)
	if err != nil {
		return fmt.Errorf("control: read reply for %s: %w", msg.Type, err)
	}
	if err := json.Unmarshal(reply, out); err != nil {
		return fmt.Errorf("control: decode reply for %s: %w", msg.Type, err)
	}
	return nil
}

// GetNetworkCalls fetches the flattened capture sequence.
func (c *Client) GetNetworkCalls() ([]types.NetworkCall, error) {
	var calls []types.NetworkCall
	if err := c.call(Message{Type: MsgGetNetworkCalls}, &calls); err != nil {
		return nil, err
	}
	return calls, nil
}

// ClearNetworkCalls empties every tab's captured sequence.
func (c *Client) ClearNetworkCalls() error {
	var reply Reply
	if err := c.call(Message{Type: MsgClearNetworkCalls}, &reply); err != nil {
		return err
	}
	if !reply.Success {
		return fmt.Errorf("control: clear rejected: %s", reply.Error)
	}
	return nil
}

// ToggleRecording sets the recording flag and returns the resulting state.
func (c *Client) ToggleRecording(enabled bool) (bool, error) {
	var reply Reply
	if err := c.call(Message{Type: MsgToggleRecording, Enabled: &enabled}, &reply); err != nil {
		return false, err
	}
	if !reply.Success {
		return false, fmt.Errorf("control: toggle rejected: %s", reply.Error)
	}
	if reply.Enabled == nil {
		return false, fmt.Errorf("control: toggle reply missing enabled state")
	}
	return *reply.Enabled, nil
}

// RecordingStatus reads the recording flag without mutating anything.
func (c *Client) RecordingStatus() (bool, error) {
	var reply Reply
	if err := c.call(Message{Type: MsgGetRecordingStatus}, &reply); err != nil {
		return false, err
	}
	if !reply.Success || reply.Enabled == nil {
		return false, fmt.Errorf("control: status reply malformed: %s", reply.Error)
	}
	return *reply.Enabled, nil
}
