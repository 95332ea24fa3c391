package termattach

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
)

// --- Resize frame tests ---

func TestResizeFrame(t *testing.T) {
	got := ResizeFrame(80, 24)
	want := []byte{1, 0, 80, 0, 24}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResizeFrame(80, 24) mismatch (-want +got):\n%s", diff)
	}
}

func TestResizeFrame_WideTerminal(t *testing.T) {
	got := ResizeFrame(300, 80)
	want := []byte{1, 0x01, 0x2c, 0, 80}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResizeFrame(300, 80) mismatch (-want +got):\n%s", diff)
	}
}

// --- Attach tests ---

// shellServer runs handler once per connection and returns the ws:// URL.
func shellServer(t *testing.T, handler func(*websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// frameLog collects frames received by the test server.
type frameLog struct {
	mu     sync.Mutex
	text   []string
	binary [][]byte
}

func (l *frameLog) record(msgType int, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch msgType {
	case websocket.TextMessage:
		l.text = append(l.text, string(data))
	case websocket.BinaryMessage:
		l.binary = append(l.binary, append([]byte(nil), data...))
	}
}

func (l *frameLog) textFrames() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.text...)
}

func (l *frameLog) binaryFrames() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]byte, len(l.binary))
	copy(out, l.binary)
	return out
}

// blockedReader never yields input, standing in for an idle keyboard.
type blockedReader struct{}

func (blockedReader) Read([]byte) (int, error) {
	select {}
}

func TestAttach_ForwardsOutput(t *testing.T) {
	url := shellServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte("$ uptime\r\n"))
		conn.WriteMessage(websocket.BinaryMessage, []byte("12:01 up 4 days\r\n"))
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	})

	var out bytes.Buffer
	term := New(WithStreams(blockedReader{}, &out))

	if err := term.Attach(context.Background(), url); err != nil {
		t.Fatalf("Attach returned %v, want nil on remote close", err)
	}
	if got := out.String(); got != "$ uptime\r\n12:01 up 4 days\r\n" {
		t.Errorf("output = %q", got)
	}
}

func TestAttach_ForwardsInputUntilDetach(t *testing.T) {
	log := &frameLog{}
	received := make(chan struct{})
	url := shellServer(t, func(conn *websocket.Conn) {
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			log.record(msgType, data)
			if msgType == websocket.TextMessage && strings.Contains(string(data), "\n") {
				close(received)
			}
		}
	})

	in := io.MultiReader(
		strings.NewReader("ls -la\n"),
		readerAfter(received, strings.NewReader("\x1dignored")),
	)
	term := New(WithStreams(in, io.Discard))

	err := term.Attach(context.Background(), url)
	if !errors.Is(err, ErrDetached) {
		t.Fatalf("Attach returned %v, want ErrDetached", err)
	}

	joined := strings.Join(log.textFrames(), "")
	if joined != "ls -la\n" {
		t.Errorf("agent received %q, want %q", joined, "ls -la\n")
	}
}

// readerAfter blocks until ch closes, then reads from r. It keeps multi-part
// test input ordered without racing the server's reads.
func readerAfter(ch <-chan struct{}, r io.Reader) io.Reader {
	return &gatedReader{ch: ch, r: r}
}

type gatedReader struct {
	ch <-chan struct{}
	r  io.Reader
}

func (g *gatedReader) Read(p []byte) (int, error) {
	<-g.ch
	return g.r.Read(p)
}

func TestAttach_DetachMidChunk(t *testing.T) {
	log := &frameLog{}
	url := shellServer(t, func(conn *websocket.Conn) {
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			log.record(msgType, data)
		}
	})

	term := New(WithStreams(strings.NewReader("ab\x1dcd"), io.Discard))

	err := term.Attach(context.Background(), url)
	if !errors.Is(err, ErrDetached) {
		t.Fatalf("Attach returned %v, want ErrDetached", err)
	}

	// The client never forwards past the detach key, so "ab" is the whole
	// transcript once the in-flight frame lands.
	waitFor(t, time.Second, func() bool {
		return strings.Join(log.textFrames(), "") == "ab"
	}, "input before detach key")
}

func TestAttach_SendsInitialSize(t *testing.T) {
	log := &frameLog{}
	got := make(chan struct{})
	url := shellServer(t, func(conn *websocket.Conn) {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		log.record(msgType, data)
		close(got)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		// Drain until the client acknowledges the close.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	size := func() (int, int, error) { return 120, 40, nil }
	term := New(WithStreams(blockedReader{}, io.Discard), WithSize(size))

	if err := term.Attach(context.Background(), url); err != nil {
		t.Fatalf("Attach returned %v", err)
	}
	<-got

	frames := log.binaryFrames()
	if len(frames) != 1 {
		t.Fatalf("expected 1 control frame, got %d", len(frames))
	}
	if diff := cmp.Diff(ResizeFrame(120, 40), frames[0]); diff != "" {
		t.Errorf("initial resize frame mismatch (-want +got):\n%s", diff)
	}
}

func TestAttach_ReportsResize(t *testing.T) {
	log := &frameLog{}
	url := shellServer(t, func(conn *websocket.Conn) {
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			log.record(msgType, data)
		}
	})

	var mu sync.Mutex
	cols := 80
	size := func() (int, int, error) {
		mu.Lock()
		defer mu.Unlock()
		return cols, 24, nil
	}

	term := New(
		WithStreams(blockedReader{}, io.Discard),
		WithSize(size),
		WithPollInterval(10*time.Millisecond),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- term.Attach(ctx, url) }()

	// First frame carries the initial 80x24 geometry.
	waitFor(t, time.Second, func() bool { return len(log.binaryFrames()) >= 1 }, "initial frame")

	mu.Lock()
	cols = 132
	mu.Unlock()

	waitFor(t, time.Second, func() bool { return len(log.binaryFrames()) >= 2 }, "resize frame")
	cancel()
	<-done

	frames := log.binaryFrames()
	if diff := cmp.Diff(ResizeFrame(80, 24), frames[0]); diff != "" {
		t.Errorf("initial frame mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(ResizeFrame(132, 24), frames[1]); diff != "" {
		t.Errorf("resize frame mismatch (-want +got):\n%s", diff)
	}
}

func TestAttach_ContextCancel(t *testing.T) {
	url := shellServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	term := New(WithStreams(blockedReader{}, io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- term.Attach(ctx, url) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Attach returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Attach did not return after cancellation")
	}
}

func TestAttach_RequiresStreams(t *testing.T) {
	if err := New().Attach(context.Background(), "ws://unused"); err == nil {
		t.Fatal("expected error when streams are missing")
	}
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}
