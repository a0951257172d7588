package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/streakwatch/internal/logging"
	"github.com/bnema/streakwatch/internal/router"
	"github.com/bnema/streakwatch/internal/watch"
)

// Message types on the wire. Events and requests arrive from the extension;
// notify and the dynamic-rule calls originate here.
const (
	TypeNavCommitted       = "navCommitted"
	TypeNavRequest         = "navRequest"
	TypeResponse           = "response"
	TypeResult             = "result"
	TypeNotify             = "notify"
	TypeGetDynamicRules    = "getDynamicRules"
	TypeUpdateDynamicRules = "updateDynamicRules"
)

// DefaultCallTimeout bounds host-to-extension round trips.
const DefaultCallTimeout = 10 * time.Second

// ErrClosed is returned for calls issued after the read loop ended.
var ErrClosed = errors.New("bridge closed")

type envelope struct {
	ID   int64  `json:"id,omitempty"`
	Type string `json:"type"`
}

// Conn multiplexes the single native-messaging pipe: it routes inbound
// navigation events and popup requests to handlers, and correlates replies
// to outbound host calls by id.
type Conn struct {
	r io.Reader

	wmu sync.Mutex
	w   io.Writer

	// OnEvent and OnRequest must be set before Run. OnRequest's response is
	// written back with the request's id.
	OnEvent   func(ctx context.Context, ev watch.Event)
	OnRequest func(ctx context.Context, req router.Request) router.Response

	callTimeout time.Duration
	nextID      atomic.Int64

	pmu     sync.Mutex
	pending map[int64]chan []byte
	closed  bool
}

// NewConn creates a connection over the given pipe halves.
func NewConn(r io.Reader, w io.Writer) *Conn {
	return &Conn{
		r:           r,
		w:           w,
		callTimeout: DefaultCallTimeout,
		pending:     map[int64]chan []byte{},
	}
}

// Run reads frames until EOF or context cancellation. A clean EOF (the
// browser closed the port) returns nil.
func (c *Conn) Run(ctx context.Context) error {
	defer c.failPending()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		body, err := ReadFrame(c.r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}
		c.handleFrame(ctx, body)
	}
}

func (c *Conn) handleFrame(ctx context.Context, body []byte) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		logging.Warn(fmt.Sprintf("discarding malformed frame: %v", err))
		return
	}

	switch env.Type {
	case TypeNavCommitted, TypeNavRequest:
		var ev watch.Event
		if err := json.Unmarshal(body, &ev); err != nil {
			logging.Warn(fmt.Sprintf("discarding malformed event: %v", err))
			return
		}
		if ev.Source == "" {
			if env.Type == TypeNavCommitted {
				ev.Source = watch.SourceCommitted
			} else {
				ev.Source = watch.SourceRequest
			}
		}
		c.dispatchEvent(ctx, ev)
	case TypeResult:
		c.deliver(env.ID, body)
	default:
		var req router.Request
		if err := json.Unmarshal(body, &req); err != nil {
			logging.Warn(fmt.Sprintf("discarding malformed request: %v", err))
			return
		}
		c.respond(env.ID, c.handleRequest(ctx, req))
	}
}

// dispatchEvent shields the read loop from handler panics so a single bad
// event cannot kill the connection.
func (c *Conn) dispatchEvent(ctx context.Context, ev watch.Event) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error(fmt.Sprintf("event handler panic: %v", r))
		}
	}()
	if c.OnEvent != nil {
		c.OnEvent(ctx, ev)
	}
}

func (c *Conn) handleRequest(ctx context.Context, req router.Request) (resp router.Response) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error(fmt.Sprintf("request handler panic: %v", r))
			resp = router.Response{OK: false, Error: "internal error"}
		}
	}()
	if c.OnRequest == nil {
		return router.Response{OK: false, Error: "no handler"}
	}
	return c.OnRequest(ctx, req)
}

func (c *Conn) respond(id int64, resp router.Response) {
	msg := struct {
		ID   int64  `json:"id"`
		Type string `json:"type"`
		router.Response
	}{ID: id, Type: TypeResponse, Response: resp}
	if err := c.write(msg); err != nil {
		logging.Error(fmt.Sprintf("failed to write response %d: %v", id, err))
	}
}

// Notify sends a fire-and-forget notification message.
func (c *Conn) Notify(ctx context.Context, title, message string) error {
	return c.write(struct {
		Type    string `json:"type"`
		Title   string `json:"title"`
		Message string `json:"message"`
	}{Type: TypeNotify, Title: title, Message: message})
}

// Call sends a host-to-extension request and waits for the correlated
// result frame.
func (c *Conn) Call(ctx context.Context, msgType string, payload map[string]any) ([]byte, error) {
	id := c.nextID.Add(1)

	ch := make(chan []byte, 1)
	c.pmu.Lock()
	if c.closed {
		c.pmu.Unlock()
		return nil, ErrClosed
	}
	c.pending[id] = ch
	c.pmu.Unlock()

	defer func() {
		c.pmu.Lock()
		delete(c.pending, id)
		c.pmu.Unlock()
	}()

	msg := map[string]any{"id": id, "type": msgType}
	for k, v := range payload {
		msg[k] = v
	}
	if err := c.write(msg); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	select {
	case body, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		return body, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", msgType, ctx.Err())
	}
}

func (c *Conn) write(msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return WriteFrame(c.w, body)
}

func (c *Conn) deliver(id int64, body []byte) {
	c.pmu.Lock()
	ch, ok := c.pending[id]
	c.pmu.Unlock()
	if !ok {
		logging.Debug(fmt.Sprintf("dropping result for unknown call %d", id))
		return
	}
	select {
	case ch <- body:
	default:
	}
}

// failPending closes every in-flight call channel after the read loop ends.
func (c *Conn) failPending() {
	c.pmu.Lock()
	defer c.pmu.Unlock()
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}
