package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"mafia/internal/app"
	"mafia/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 256
)

// Dispatcher accepts decoded commands
type Dispatcher interface {
	Submit(ctx context.Context, cmd app.Command) error
}

// Client represents a WebSocket client connection
type Client struct {
	conn       *websocket.Conn
	connRef    string
	dispatcher Dispatcher
	gateway    *Gateway
	send       chan []byte
	done       chan struct{}
	logger     *slog.Logger
	mu         sync.Mutex
	closed     bool
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, connRef string, dispatcher Dispatcher, gateway *Gateway, logger *slog.Logger) *Client {
	return &Client{
		conn:       conn,
		connRef:    connRef,
		dispatcher: dispatcher,
		gateway:    gateway,
		send:       make(chan []byte, sendBufferSize),
		done:       make(chan struct{}),
		logger:     logger.With("connRef", connRef),
	}
}

// ConnRef returns the connection reference for this client
func (c *Client) ConnRef() string {
	return c.connRef
}

// Send queues a message for the write pump
func (c *Client) Send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer full, message dropped
		c.logger.Warn("send buffer full, message dropped")
		return nil
	}
}

// Close closes the connection once
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.gateway.Unregister(c)
		c.submit(app.Disconnect{ConnRef: c.connRef})
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage decodes a frame and hands it to the coordinator
func (c *Client) handleMessage(data []byte) {
	msg, err := DecodeMessage(data)
	if err != nil {
		c.sendError(domain.CodeValidation, err.Error())
		return
	}

	if msg.Type == MsgPing {
		c.sendPong()
		return
	}

	cmd, err := msg.Command(c.connRef)
	if err != nil {
		c.sendError(domain.ErrorCode(err), err.Error())
		return
	}

	if err := c.submit(cmd); err != nil {
		c.sendError(domain.CodeInternal, "server is not accepting commands")
	}
}

func (c *Client) submit(cmd app.Command) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()

	err := c.dispatcher.Submit(ctx, cmd)
	if err != nil {
		c.logger.Warn("command not submitted", "command", string(commandName(cmd)), "error", err)
	}
	return err
}

// sendError sends an error message to the client
func (c *Client) sendError(code, message string) {
	payload := &domain.ErrorPayload{
		Code:    code,
		Message: message,
	}

	msg := NewServerMessage(MsgError, payload)
	c.Send(msg)
}

// sendPong sends a pong message in response to ping
func (c *Client) sendPong() {
	msg := NewServerMessage(MsgPong, nil)
	c.Send(msg)
}

func commandName(cmd app.Command) MessageType {
	switch cmd.(type) {
	case app.Join:
		return MsgJoin
	case app.Reconnect:
		return MsgReconnect
	case app.Disconnect:
		return "disconnect"
	case app.Leave:
		return MsgLeaveLobby
	default:
		return "command"
	}
}
