package live

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/recera/kgcanvas/pkg/interact"
)

// Client is a live protocol client. Hosts written in Go and the server
// tests use it; browsers speak the same frames.
type Client struct {
	conn *websocket.Conn
}

// Inbound is one server frame: either a control message or a JSON message.
type Inbound struct {
	Control string
	Args    []uint64
	Message *Message
}

// Dial connects to a live endpoint such as ws://host/live/<session>.
func Dial(ctx context.Context, url string, header http.Header) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return &Client{conn: conn}, nil
}

// Send encodes and sends an event.
func (c *Client) Send(ev interact.Event) error {
	data, err := EncodeEvent(ev)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

// Hello announces the client and the last sequence number it has seen.
func (c *Client) Hello(lastSeq uint64) error {
	return c.conn.WriteMessage(websocket.BinaryMessage, encodeControl("HELLO", 1, lastSeq))
}

// Ping sends a protocol level PING; the server answers PONG.
func (c *Client) Ping() error {
	return c.conn.WriteMessage(websocket.BinaryMessage, encodeControl("PING"))
}

// Next reads one server frame.
func (c *Client) Next(ctx context.Context) (Inbound, error) {
	deadline := time.Time{}
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	c.conn.SetReadDeadline(deadline)

	kind, data, err := c.conn.ReadMessage()
	if err != nil {
		return Inbound{}, err
	}
	if kind == websocket.BinaryMessage {
		return decodeControl(data)
	}
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Inbound{}, fmt.Errorf("failed to decode message: %w", err)
	}
	return Inbound{Message: &m}, nil
}

// NextMessage reads frames until a JSON message of the given type arrives.
func (c *Client) NextMessage(ctx context.Context, typ string) (Message, error) {
	for {
		in, err := c.Next(ctx)
		if err != nil {
			return Message{}, err
		}
		if in.Message != nil && in.Message.Type == typ {
			return *in.Message, nil
		}
	}
}

// NextControl reads frames until the named control message arrives.
func (c *Client) NextControl(ctx context.Context, name string) (Inbound, error) {
	for {
		in, err := c.Next(ctx)
		if err != nil {
			return Inbound{}, err
		}
		if in.Control == name {
			return in, nil
		}
	}
}

// Close closes the connection.
func (c *Client) Close() error {
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

func decodeControl(data []byte) (Inbound, error) {
	if len(data) == 0 || MessageType(data[0]) != FrameControl {
		return Inbound{}, fmt.Errorf("unexpected binary frame")
	}
	d := NewDecoder(bytes.NewReader(data[1:]))
	name, err := d.ReadString()
	if err != nil {
		return Inbound{}, err
	}
	in := Inbound{Control: name}
	for {
		v, err := d.ReadUvarint()
		if err != nil {
			break
		}
		in.Args = append(in.Args, v)
	}
	return in, nil
}
