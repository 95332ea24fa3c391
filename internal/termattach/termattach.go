// Package termattach bridges a local terminal to an agent shell session.
//
// The agent exposes an interactive shell over a WebSocket. Keystrokes travel
// to the agent as text frames; shell output comes back as text or binary
// frames and is written verbatim to the local terminal. Geometry changes are
// sent as a 5-byte binary control frame: opcode byte 1 followed by columns
// and rows, each big-endian uint16.
//
// The package is terminal-agnostic: callers supply the input/output streams
// and a size function, and own raw-mode handling. Pressing Ctrl-] detaches
// the session locally without terminating the remote shell.
package termattach

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// opResize is the control opcode for a geometry change.
const opResize = 1

// detachKey is Ctrl-], the scarcely typed byte that ends a session locally.
const detachKey = 0x1d

// defaultPoll is how often the terminal size is re-checked. SIGWINCH is not
// portable, so geometry changes are detected by polling.
const defaultPoll = 500 * time.Millisecond

// ErrDetached is returned by Attach when the user pressed the detach key.
var ErrDetached = errors.New("termattach: session detached")

// SizeFunc reports the current terminal geometry in character cells.
type SizeFunc func() (cols, rows int, err error)

// ResizeFrame encodes a geometry change as a control frame.
func ResizeFrame(cols, rows int) []byte {
	frame := make([]byte, 5)
	frame[0] = opResize
	binary.BigEndian.PutUint16(frame[1:3], uint16(cols))
	binary.BigEndian.PutUint16(frame[3:5], uint16(rows))
	return frame
}

// Terminal attaches local streams to a remote shell session.
type Terminal struct {
	dialer *websocket.Dialer
	in     io.Reader
	out    io.Writer
	size   SizeFunc
	poll   time.Duration
}

// Option configures a Terminal.
type Option func(*Terminal)

// WithStreams sets the local input and output. Defaults are nil; Attach
// requires both.
func WithStreams(in io.Reader, out io.Writer) Option {
	return func(t *Terminal) {
		t.in = in
		t.out = out
	}
}

// WithSize sets the geometry source. Without one, no resize frames are sent.
func WithSize(fn SizeFunc) Option {
	return func(t *Terminal) { t.size = fn }
}

// WithDialer overrides the WebSocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(t *Terminal) { t.dialer = d }
}

// WithPollInterval overrides how often geometry is re-checked.
func WithPollInterval(d time.Duration) Option {
	return func(t *Terminal) {
		if d > 0 {
			t.poll = d
		}
	}
}

// New builds a Terminal.
func New(opts ...Option) *Terminal {
	t := &Terminal{
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		poll:   defaultPoll,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Attach dials the shell socket and pumps bytes until the remote shell
// exits, the context is cancelled, or the user detaches. A nil return means
// the remote side closed the session; ErrDetached means the user did.
//
// The input reader is consumed on a goroutine that cannot be unblocked once
// the session ends; with an interactive stdin it lingers until the next
// keypress, which is harmless in a short-lived CLI process.
func (t *Terminal) Attach(ctx context.Context, rawURL string) error {
	if t.in == nil || t.out == nil {
		return errors.New("termattach: input and output streams are required")
	}

	conn, _, err := t.dialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return fmt.Errorf("termattach: connect shell: %w", err)
	}
	defer conn.Close()

	w := &sessionWriter{conn: conn}

	// Tell the agent our geometry before any output renders.
	sentCols, sentRows := -1, -1
	if t.size != nil {
		if cols, rows, err := t.size(); err == nil {
			if err := w.control(ResizeFrame(cols, rows)); err != nil {
				return fmt.Errorf("termattach: initial resize: %w", err)
			}
			sentCols, sentRows = cols, rows
		}
	}

	readErr := make(chan error, 1)
	go func() { readErr <- t.pumpOutput(conn) }()

	inputErr := make(chan error, 1)
	go func() { inputErr <- t.pumpInput(w) }()

	stopWatch := make(chan struct{})
	defer close(stopWatch)
	if t.size != nil {
		go t.watchSize(w, stopWatch, sentCols, sentRows)
	}

	select {
	case <-ctx.Done():
		w.close()
		return ctx.Err()
	case err := <-readErr:
		return err
	case err := <-inputErr:
		w.close()
		if errors.Is(err, ErrDetached) {
			return ErrDetached
		}
		return err
	}
}

// pumpOutput copies remote frames to the local output until the connection
// ends. A normal close from the agent is a clean shutdown.
func (t *Terminal) pumpOutput(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("termattach: session closed: %w", err)
		}
		if _, err := t.out.Write(data); err != nil {
			return fmt.Errorf("termattach: write output: %w", err)
		}
	}
}

// pumpInput forwards local keystrokes, stopping at the detach key. Bytes
// typed before the detach key in the same read are still delivered.
func (t *Terminal) pumpInput(w *sessionWriter) error {
	buf := make([]byte, 4096)
	for {
		n, err := t.in.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if i := bytes.IndexByte(chunk, detachKey); i >= 0 {
				if i > 0 {
					if err := w.input(chunk[:i]); err != nil {
						return err
					}
				}
				return ErrDetached
			}
			if err := w.input(chunk); err != nil {
				return err
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ErrDetached
			}
			return fmt.Errorf("termattach: read input: %w", err)
		}
	}
}

// watchSize polls the geometry source and reports changes to the agent.
// lastCols and lastRows are the geometry the agent already knows.
func (t *Terminal) watchSize(w *sessionWriter, stop <-chan struct{}, lastCols, lastRows int) {
	ticker := time.NewTicker(t.poll)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			cols, rows, err := t.size()
			if err != nil || (cols == lastCols && rows == lastRows) {
				continue
			}
			lastCols, lastRows = cols, rows
			if err := w.control(ResizeFrame(cols, rows)); err != nil {
				return
			}
		}
	}
}

// sessionWriter serializes writes to the socket. Input, resize frames and
// the closing handshake race from different goroutines; the connection
// allows only one writer at a time.
type sessionWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *sessionWriter) input(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *sessionWriter) control(frame []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.BinaryMessage, frame)
}

func (w *sessionWriter) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
