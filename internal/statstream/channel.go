// Package statstream maintains one live stats WebSocket per agent and fans
// readings out to subscribers.
//
// A Channel owns at most one connection at a time. Subscribers receive every
// decoded snapshot synchronously, in registration order, from the channel's
// reader goroutine; a slow subscriber therefore backpressures the stream
// rather than dropping data. When the connection drops the channel redials
// with capped exponential backoff until it succeeds, gives up, or is told to
// disconnect.
package statstream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gloski/cli/internal/api"
)

// State is the channel's connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Update is one delivered reading. Seq increases by one per delivery and
// never resets while the Channel lives, so a subscriber comparing sequence
// numbers across UI frames can tell whether it missed updates.
type Update struct {
	Seq      uint64
	Snapshot api.StatsSnapshot
}

// Subscriber receives updates. It runs on the channel's reader goroutine and
// must not block for long.
type Subscriber func(Update)

// StateFunc observes connection state transitions. It is called outside the
// channel's lock and may itself call back into the Channel.
type StateFunc func(State)

// Backoff shapes the reconnect schedule: Base doubles per consecutive
// failure up to Max. MaxAttempts bounds consecutive failures before the
// channel gives up and goes disconnected; 0 means never give up.
type Backoff struct {
	Base        time.Duration
	Max         time.Duration
	MaxAttempts int
}

// DefaultBackoff matches the reconnect cadence agents are provisioned for.
func DefaultBackoff() Backoff {
	return Backoff{Base: 2 * time.Second, Max: 30 * time.Second, MaxAttempts: 10}
}

// Delay returns the wait before reconnect attempt n (counting from 1).
func (b Backoff) Delay(attempt int) time.Duration {
	if b.Base <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	d := b.Base << (attempt - 1)
	if b.Max > 0 && (d > b.Max || d <= 0) {
		d = b.Max
	}
	return d
}

// Option configures a Channel during construction.
type Option func(*Channel)

// WithBackoff replaces the reconnect schedule.
func WithBackoff(b Backoff) Option {
	return func(c *Channel) { c.backoff = b }
}

// WithStateFunc installs the state transition observer.
func WithStateFunc(fn StateFunc) Option {
	return func(c *Channel) { c.stateFunc = fn }
}

// WithDialer replaces the WebSocket dialer. Intended for tests.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Channel) { c.dialer = d }
}

type subscription struct {
	id int
	fn Subscriber
}

// Channel is a reconnecting stats stream for one agent.
type Channel struct {
	dialer    *websocket.Dialer
	backoff   Backoff
	stateFunc StateFunc

	mu      sync.Mutex
	url     string
	state   State
	gen     int // bumps on Connect/Disconnect; stale sessions exit
	cancel  context.CancelFunc
	conn    *websocket.Conn
	seq     uint64
	subs    []subscription
	nextSub int

	// onFirst persists across reconnects; firstPending re-arms it whenever a
	// connection is adopted, so it fires on each session's first message.
	onFirst      func()
	firstPending bool
}

// New builds a disconnected channel.
func New(opts ...Option) *Channel {
	c := &Channel{
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		backoff: DefaultBackoff(),
		state:   StateDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive every update. Subscribers are notified
// in registration order. The returned cancel func removes the subscription;
// it is safe to call more than once.
func (c *Channel) Subscribe(fn Subscriber) (cancel func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs = append(c.subs, subscription{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, sub := range c.subs {
			if sub.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// Connect starts (or reuses) a session against rawURL, which should come
// from api.Client.StatsSocketURL. While a session for the same URL is
// already active the call only installs onFirst, which then fires on the
// next received message. A different URL tears the old session down first.
//
// onFirst, when non-nil, is invoked once per established connection, before
// subscribers see that connection's first message. After an automatic
// reconnect it fires again on the new connection's first message.
func (c *Channel) Connect(rawURL string, onFirst func()) {
	c.mu.Lock()

	if c.url == rawURL && c.state != StateDisconnected {
		if onFirst != nil {
			c.onFirst = onFirst
			c.firstPending = true
		}
		c.mu.Unlock()
		return
	}

	c.stopSessionLocked()

	c.gen++
	gen := c.gen
	c.url = rawURL
	c.onFirst = onFirst
	c.firstPending = onFirst != nil

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(ctx, gen, rawURL)
}

// Disconnect tears down the session and reports StateDisconnected. It is a
// no-op on an already disconnected channel. Subscriptions survive and apply
// to the next Connect.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	if c.state == StateDisconnected && c.cancel == nil {
		c.mu.Unlock()
		return
	}
	c.stopSessionLocked()
	c.gen++
	gen := c.gen
	c.url = ""
	c.onFirst = nil
	c.firstPending = false
	c.mu.Unlock()

	c.setState(gen, StateDisconnected)
}

// stopSessionLocked cancels the running session and closes its connection
// so a blocked read returns. Callers hold c.mu.
func (c *Channel) stopSessionLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// stale reports whether gen no longer identifies the active session.
func (c *Channel) stale(gen int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen != c.gen
}

// setState records a transition and notifies the observer outside the lock.
// Stale sessions and repeated states report nothing.
func (c *Channel) setState(gen int, s State) {
	c.mu.Lock()
	if gen != c.gen || c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	fn := c.stateFunc
	c.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}

// run is the session loop: dial, read until the connection drops, back off,
// repeat. It exits when the session goes stale, the context ends, or the
// backoff budget is spent.
func (c *Channel) run(ctx context.Context, gen int, rawURL string) {
	attempt := 0
	for {
		if ctx.Err() != nil || c.stale(gen) {
			return
		}
		c.setState(gen, StateConnecting)

		conn, resp, err := c.dialer.DialContext(ctx, rawURL, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			attempt++
			if c.backoff.MaxAttempts > 0 && attempt >= c.backoff.MaxAttempts {
				c.setState(gen, StateDisconnected)
				return
			}
			if !sleepCtx(ctx, c.backoff.Delay(attempt)) {
				return
			}
			continue
		}

		if !c.adopt(gen, conn) {
			conn.Close()
			return
		}
		c.setState(gen, StateConnected)
		attempt = 0

		c.readLoop(gen, conn)
		c.release(gen, conn)
		attempt = 1

		if ctx.Err() != nil || c.stale(gen) {
			return
		}
		if c.backoff.MaxAttempts > 0 && attempt >= c.backoff.MaxAttempts {
			c.setState(gen, StateDisconnected)
			return
		}
		c.setState(gen, StateConnecting)
		if !sleepCtx(ctx, c.backoff.Delay(attempt)) {
			return
		}
	}
}

// adopt stores the live connection so Disconnect can close it and re-arms
// the onFirst callback for the new session. Returns false when the session
// went stale during the dial.
func (c *Channel) adopt(gen int, conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.conn = conn
	c.firstPending = c.onFirst != nil
	return true
}

// release forgets the connection after the read loop ends.
func (c *Channel) release(gen int, conn *websocket.Conn) {
	conn.Close()
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.gen && c.conn == conn {
		c.conn = nil
	}
}

// readLoop consumes messages until the connection fails. Frames that do not
// decode as snapshots are skipped; agents may interleave other message kinds.
func (c *Channel) readLoop(gen int, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if c.stale(gen) {
			return
		}

		var snap api.StatsSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			continue
		}
		c.deliver(gen, snap)
	}
}

// deliver assigns the next sequence number and notifies, first the pending
// onFirst callback, then every subscriber in registration order. Both run
// synchronously on the reader goroutine.
func (c *Channel) deliver(gen int, snap api.StatsSnapshot) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.seq++
	update := Update{Seq: c.seq, Snapshot: snap}
	subs := make([]subscription, len(c.subs))
	copy(subs, c.subs)
	var onFirst func()
	if c.firstPending {
		onFirst = c.onFirst
		c.firstPending = false
	}
	c.mu.Unlock()

	if onFirst != nil {
		onFirst()
	}
	for _, sub := range subs {
		sub.fn(update)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
