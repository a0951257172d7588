package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/streakwatch/internal/router"
	"github.com/bnema/streakwatch/internal/rules"
	"github.com/bnema/streakwatch/internal/watch"
)

// safeBuffer guards a bytes.Buffer for concurrent writer/reader use.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) frames(t *testing.T) []map[string]any {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []map[string]any
	r := bytes.NewReader(b.buf.Bytes())
	for {
		body, err := ReadFrame(r)
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(body, &m))
		out = append(out, m)
	}
}

func encodeFrames(t *testing.T, msgs ...any) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	for _, m := range msgs {
		body, err := json.Marshal(m)
		require.NoError(t, err)
		require.NoError(t, WriteFrame(&buf, body))
	}
	return bytes.NewReader(buf.Bytes())
}

func TestRunDispatchesEvents(t *testing.T) {
	in := encodeFrames(t,
		map[string]any{"type": TypeNavCommitted, "url": "https://a.example/", "frameId": 0},
		map[string]any{"type": TypeNavRequest, "url": "https://b.example/", "resourceType": "main_frame"},
	)
	out := &safeBuffer{}
	conn := NewConn(in, out)

	var events []watch.Event
	conn.OnEvent = func(ctx context.Context, ev watch.Event) {
		events = append(events, ev)
	}
	conn.OnRequest = func(ctx context.Context, req router.Request) router.Response {
		t.Fatalf("unexpected request %+v", req)
		return router.Response{}
	}

	require.NoError(t, conn.Run(context.Background()))
	require.Len(t, events, 2)
	assert.Equal(t, watch.SourceCommitted, events[0].Source)
	assert.Equal(t, "https://a.example/", events[0].URL)
	assert.Equal(t, watch.SourceRequest, events[1].Source)
	assert.Equal(t, "main_frame", events[1].ResourceType)
}

func TestRunAnswersRequests(t *testing.T) {
	in := encodeFrames(t,
		map[string]any{"id": 7, "type": "getState"},
		map[string]any{"id": 8, "type": "addCustomSite", "site": "example.com"},
	)
	out := &safeBuffer{}
	conn := NewConn(in, out)
	conn.OnRequest = func(ctx context.Context, req router.Request) router.Response {
		switch req.Type {
		case "getState":
			return router.Response{OK: true, Today: "2024-03-05"}
		case "addCustomSite":
			return router.Response{OK: true, CustomSites: []string{req.Site}}
		default:
			return router.Response{OK: false}
		}
	}

	require.NoError(t, conn.Run(context.Background()))

	frames := out.frames(t)
	require.Len(t, frames, 2)
	assert.Equal(t, float64(7), frames[0]["id"])
	assert.Equal(t, TypeResponse, frames[0]["type"])
	assert.Equal(t, "2024-03-05", frames[0]["today"])
	assert.Equal(t, float64(8), frames[1]["id"])
	assert.Equal(t, []any{"example.com"}, frames[1]["customSites"])
}

func TestRunSurvivesHandlerPanic(t *testing.T) {
	in := encodeFrames(t,
		map[string]any{"type": TypeNavCommitted, "url": "https://a.example/"},
		map[string]any{"id": 1, "type": "getState"},
		map[string]any{"id": 2, "type": "getState"},
	)
	out := &safeBuffer{}
	conn := NewConn(in, out)
	conn.OnEvent = func(ctx context.Context, ev watch.Event) {
		panic("event handler bug")
	}
	calls := 0
	conn.OnRequest = func(ctx context.Context, req router.Request) router.Response {
		calls++
		if calls == 1 {
			panic("request handler bug")
		}
		return router.Response{OK: true}
	}

	require.NoError(t, conn.Run(context.Background()))

	frames := out.frames(t)
	require.Len(t, frames, 2)
	assert.Equal(t, false, frames[0]["ok"])
	assert.Equal(t, true, frames[1]["ok"])
}

func TestRunSkipsMalformedFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("not json")))
	body, _ := json.Marshal(map[string]any{"id": 1, "type": "getState"})
	require.NoError(t, WriteFrame(&buf, body))

	out := &safeBuffer{}
	conn := NewConn(bytes.NewReader(buf.Bytes()), out)
	conn.OnRequest = func(ctx context.Context, req router.Request) router.Response {
		return router.Response{OK: true}
	}

	require.NoError(t, conn.Run(context.Background()))
	assert.Len(t, out.frames(t), 1)
}

func TestCallCorrelatesResult(t *testing.T) {
	// The extension side of the pipe: read the outbound call, answer it.
	hostReader, extWriter := io.Pipe()
	extReader, hostWriter := io.Pipe()

	conn := NewConn(hostReader, hostWriter)
	done := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { done <- conn.Run(ctx) }()

	go func() {
		body, err := ReadFrame(extReader)
		if err != nil {
			return
		}
		var req map[string]any
		if json.Unmarshal(body, &req) != nil {
			return
		}
		reply, _ := json.Marshal(map[string]any{
			"id":    req["id"],
			"type":  TypeResult,
			"ok":    true,
			"rules": []map[string]any{{"id": 1001, "priority": 1}},
		})
		_ = WriteFrame(extWriter, reply)
	}()

	engine := NewRuleEngine(conn)
	installed, err := engine.ListDynamicRules(context.Background())
	require.NoError(t, err)
	require.Len(t, installed, 1)
	assert.Equal(t, 1001, installed[0].ID)

	_ = extWriter.Close()
	_ = extReader.Close()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("read loop did not stop")
	}
}

func TestCallRejectedByExtension(t *testing.T) {
	hostReader, extWriter := io.Pipe()
	extReader, hostWriter := io.Pipe()

	conn := NewConn(hostReader, hostWriter)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = conn.Run(ctx) }()

	go func() {
		body, err := ReadFrame(extReader)
		if err != nil {
			return
		}
		var req map[string]any
		if json.Unmarshal(body, &req) != nil {
			return
		}
		reply, _ := json.Marshal(map[string]any{
			"id":    req["id"],
			"type":  TypeResult,
			"ok":    false,
			"error": "permission denied",
		})
		_ = WriteFrame(extWriter, reply)
	}()

	engine := NewRuleEngine(conn)
	err := engine.UpdateDynamicRules(context.Background(), []int{1000}, []rules.Rule{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")

	_ = extWriter.Close()
	_ = extReader.Close()
}

func TestCallFailsAfterClose(t *testing.T) {
	in := encodeFrames(t)
	conn := NewConn(in, &safeBuffer{})
	require.NoError(t, conn.Run(context.Background()))

	_, err := conn.Call(context.Background(), TypeGetDynamicRules, nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNotifyWritesFrame(t *testing.T) {
	out := &safeBuffer{}
	conn := NewConn(bytes.NewReader(nil), out)

	notifier := NewNotifier(conn)
	require.NoError(t, notifier.Notify(context.Background(), "Streak broken", "You visited an adult content site."))

	frames := out.frames(t)
	require.Len(t, frames, 1)
	assert.Equal(t, TypeNotify, frames[0]["type"])
	assert.Equal(t, "Streak broken", frames[0]["title"])
	assert.Equal(t, "You visited an adult content site.", frames[0]["message"])
}

func TestOversizedFrameStopsLoopCleanly(t *testing.T) {
	var buf bytes.Buffer
	var header [4]byte
	header[0] = 0xFF
	header[1] = 0xFF
	header[2] = 0xFF
	header[3] = 0x7F
	buf.Write(header[:])

	conn := NewConn(bytes.NewReader(buf.Bytes()), &safeBuffer{})
	err := conn.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, fmt.Sprint(err), "exceeds")
}
