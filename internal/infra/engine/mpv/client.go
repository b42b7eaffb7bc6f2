// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"
)

// ErrClosed is returned for requests on a closed connection.
var ErrClosed = errors.New("mpv: connection closed")

// Message is one line received from the mpv JSON IPC socket: either an
// asynchronous event or the reply to a request.
type Message struct {
	Event     string          `json:"event,omitempty"`
	ID        int             `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	FileError string          `json:"file_error,omitempty"`
	RequestID int64           `json:"request_id,omitempty"`
	Error     string          `json:"error,omitempty"`
}

type request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// Client speaks the mpv JSON IPC protocol over a stream connection.
// Events are handed to the handler on the reader goroutine, one at a time.
type Client struct {
	conn    net.Conn
	handler func(Message)
	logger  zerolog.Logger

	wmu sync.Mutex

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan Message
	closed  bool

	done chan struct{}
}

// NewClient starts reading from conn.
func NewClient(conn net.Conn, handler func(Message), logger zerolog.Logger) *Client {
	c := &Client{
		conn:    conn,
		handler: handler,
		logger:  logger,
		pending: make(map[int64]chan Message),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *Client) readLoop() {
	defer close(c.done)
	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			c.logger.Warn().Err(err).Msg("mpv: undecodable ipc line")
			continue
		}
		if msg.Event != "" {
			if c.handler != nil {
				c.handler(msg)
			}
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[msg.RequestID]
		delete(c.pending, msg.RequestID)
		c.mu.Unlock()
		if ok {
			ch <- msg
		}
	}
	if err := scanner.Err(); err != nil {
		c.logger.Debug().Err(err).Msg("mpv: ipc reader stopped")
	}

	c.mu.Lock()
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()
}

func (c *Client) register() (int64, chan Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, nil, ErrClosed
	}
	c.nextID++
	ch := make(chan Message, 1)
	c.pending[c.nextID] = ch
	return c.nextID, ch, nil
}

func (c *Client) forget(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) write(id int64, args []any) error {
	data, err := json.Marshal(request{Command: args, RequestID: id})
	if err != nil {
		return fmt.Errorf("mpv: marshal command: %w", err)
	}
	data = append(data, '\n')

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("mpv: send command: %w", err)
	}
	return nil
}

// Call sends a command and waits for its reply.
func (c *Client) Call(ctx context.Context, args ...any) (json.RawMessage, error) {
	id, ch, err := c.register()
	if err != nil {
		return nil, err
	}
	if err := c.write(id, args); err != nil {
		c.forget(id)
		return nil, err
	}
	select {
	case msg, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		if msg.Error != "" && msg.Error != "success" {
			return nil, fmt.Errorf("mpv: %v: %s", args[0], msg.Error)
		}
		return msg.Data, nil
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	}
}

// Send writes a command without waiting for the reply.
func (c *Client) Send(args ...any) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.nextID++
	id := c.nextID
	c.mu.Unlock()
	return c.write(id, args)
}

// Close closes the connection and waits for the reader to exit.
func (c *Client) Close() error {
	err := c.conn.Close()
	<-c.done
	return err
}

// Done is closed when the reader exits.
func (c *Client) Done() <-chan struct{} {
	return c.done
}
