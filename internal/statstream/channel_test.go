package statstream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gloski/cli/internal/api"
)

// --- Test helpers ---

// newStatsServer starts a WebSocket server that runs handler once per
// connection and returns the ws:// URL.
func newStatsServer(t *testing.T, handler func(*websocket.Conn)) string {
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

func testSnap(hostname string) api.StatsSnapshot {
	return api.StatsSnapshot{
		Hostname: hostname,
		CPU:      api.CPUStats{Percent: 42, Cores: 2},
	}
}

// fastBackoff keeps reconnect tests quick.
func fastBackoff() Backoff {
	return Backoff{Base: 5 * time.Millisecond, Max: 20 * time.Millisecond, MaxAttempts: 0}
}

// --- Delivery tests ---

func TestChannel_SubscriberOrder(t *testing.T) {
	url := newStatsServer(t, func(conn *websocket.Conn) {
		for i := 0; i < 3; i++ {
			if err := conn.WriteJSON(testSnap("web-1")); err != nil {
				return
			}
		}
		// Keep the connection open so no reconnect interferes.
		conn.ReadMessage()
	})

	ch := New(WithBackoff(fastBackoff()))
	t.Cleanup(ch.Disconnect)

	var mu sync.Mutex
	var order []string
	ch.Subscribe(func(u Update) {
		mu.Lock()
		order = append(order, "a")
		mu.Unlock()
	})
	ch.Subscribe(func(u Update) {
		mu.Lock()
		order = append(order, "b")
		mu.Unlock()
	})

	ch.Connect(url, nil)

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) >= 6
	}, "six deliveries")

	mu.Lock()
	defer mu.Unlock()
	want := []string{"a", "b", "a", "b", "a", "b"}
	for i, tag := range want {
		if order[i] != tag {
			t.Fatalf("delivery order = %v, want %v", order, want)
		}
	}
}

func TestChannel_OnFirstMessage(t *testing.T) {
	send := make(chan struct{}, 4)
	url := newStatsServer(t, func(conn *websocket.Conn) {
		for range send {
			if err := conn.WriteJSON(testSnap("web-1")); err != nil {
				return
			}
		}
	})
	t.Cleanup(func() { close(send) })

	ch := New(WithBackoff(fastBackoff()))
	t.Cleanup(ch.Disconnect)

	var mu sync.Mutex
	var events []string
	ch.Subscribe(func(u Update) {
		mu.Lock()
		events = append(events, "update")
		mu.Unlock()
	})

	ch.Connect(url, func() {
		mu.Lock()
		events = append(events, "first")
		mu.Unlock()
	})

	send <- struct{}{}
	send <- struct{}{}

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) >= 3
	}, "first + two updates")

	mu.Lock()
	got := append([]string(nil), events...)
	mu.Unlock()

	// onFirst precedes the first delivery and fires exactly once.
	want := []string{"first", "update", "update"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}

	// A repeat Connect on a live session installs a fresh onFirst that
	// fires on the next message.
	ch.Connect(url, func() {
		mu.Lock()
		events = append(events, "first-again")
		mu.Unlock()
	})
	send <- struct{}{}

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) >= 5
	}, "re-armed first callback")

	mu.Lock()
	defer mu.Unlock()
	if events[3] != "first-again" || events[4] != "update" {
		t.Fatalf("events after re-connect = %v, want ... first-again, update", events)
	}
}

func TestChannel_OnFirstMessageRefiresAfterReconnect(t *testing.T) {
	// The first connection drops after one message; the channel redials and
	// the second stays open. onFirst marks each session's first message, so
	// callers can flip a profile back online after an automatic reconnect.
	var conns int32
	url := newStatsServer(t, func(conn *websocket.Conn) {
		n := atomic.AddInt32(&conns, 1)
		conn.WriteJSON(testSnap("web-1"))
		if n == 1 {
			return
		}
		conn.ReadMessage()
	})

	ch := New(WithBackoff(fastBackoff()))
	t.Cleanup(ch.Disconnect)

	var mu sync.Mutex
	var events []string
	ch.Subscribe(func(u Update) {
		mu.Lock()
		events = append(events, "update")
		mu.Unlock()
	})

	ch.Connect(url, func() {
		mu.Lock()
		events = append(events, "first")
		mu.Unlock()
	})

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) >= 4
	}, "deliveries across a reconnect")

	mu.Lock()
	defer mu.Unlock()
	want := []string{"first", "update", "first", "update"}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
	if atomic.LoadInt32(&conns) < 2 {
		t.Fatalf("expected a reconnect, saw %d connections", conns)
	}
}

func TestChannel_SeqMonotonicAcrossReconnects(t *testing.T) {
	var conns int32
	url := newStatsServer(t, func(conn *websocket.Conn) {
		n := atomic.AddInt32(&conns, 1)
		conn.WriteJSON(testSnap("web-1"))
		if n == 1 {
			return // first connection drops after one message
		}
		conn.ReadMessage()
	})

	ch := New(WithBackoff(fastBackoff()))
	t.Cleanup(ch.Disconnect)

	var mu sync.Mutex
	var seqs []uint64
	ch.Subscribe(func(u Update) {
		mu.Lock()
		seqs = append(seqs, u.Seq)
		mu.Unlock()
	})

	ch.Connect(url, nil)

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seqs) >= 2
	}, "deliveries across a reconnect")

	mu.Lock()
	defer mu.Unlock()
	if seqs[0] != 1 || seqs[1] != 2 {
		t.Fatalf("seqs = %v, want [1 2] without reset across reconnects", seqs)
	}
	if atomic.LoadInt32(&conns) < 2 {
		t.Fatalf("expected a reconnect, saw %d connections", conns)
	}
}

func TestChannel_SkipsMalformedFrames(t *testing.T) {
	url := newStatsServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		conn.WriteJSON(testSnap("survivor"))
		conn.ReadMessage()
	})

	ch := New(WithBackoff(fastBackoff()))
	t.Cleanup(ch.Disconnect)

	var mu sync.Mutex
	var hosts []string
	ch.Subscribe(func(u Update) {
		mu.Lock()
		hosts = append(hosts, u.Snapshot.Hostname)
		mu.Unlock()
	})

	ch.Connect(url, nil)

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(hosts) >= 1
	}, "delivery after malformed frame")

	mu.Lock()
	defer mu.Unlock()
	if len(hosts) != 1 || hosts[0] != "survivor" {
		t.Fatalf("hosts = %v, want [survivor]", hosts)
	}
}

func TestChannel_SubscribeCancel(t *testing.T) {
	send := make(chan struct{}, 2)
	url := newStatsServer(t, func(conn *websocket.Conn) {
		for range send {
			if err := conn.WriteJSON(testSnap("web-1")); err != nil {
				return
			}
		}
	})
	t.Cleanup(func() { close(send) })

	ch := New(WithBackoff(fastBackoff()))
	t.Cleanup(ch.Disconnect)

	var mu sync.Mutex
	var got []string
	cancelA := ch.Subscribe(func(u Update) {
		mu.Lock()
		got = append(got, "a")
		mu.Unlock()
	})
	ch.Subscribe(func(u Update) {
		mu.Lock()
		got = append(got, "b")
		mu.Unlock()
	})

	cancelA()
	cancelA() // second cancel is a no-op

	ch.Connect(url, nil)
	send <- struct{}{}

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) >= 1
	}, "remaining subscriber delivery")

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("deliveries = %v, want [b]", got)
	}
}

// --- Session lifecycle tests ---

func TestChannel_ConnectIdempotent(t *testing.T) {
	var upgrades int32
	stop := make(chan struct{})
	url := newStatsServer(t, func(conn *websocket.Conn) {
		atomic.AddInt32(&upgrades, 1)
		conn.WriteJSON(testSnap("web-1"))
		<-stop
	})
	t.Cleanup(func() { close(stop) })

	ch := New(WithBackoff(fastBackoff()))
	t.Cleanup(ch.Disconnect)

	ch.Connect(url, nil)
	waitFor(t, 2*time.Second, func() bool { return ch.State() == StateConnected }, "connected state")

	ch.Connect(url, nil)

	// Give a second dial time to happen if one were issued.
	time.Sleep(50 * time.Millisecond)
	if n := atomic.LoadInt32(&upgrades); n != 1 {
		t.Fatalf("connections = %d, want 1 for a repeat Connect to the same URL", n)
	}
}

func TestChannel_StateTransitions(t *testing.T) {
	stop := make(chan struct{})
	url := newStatsServer(t, func(conn *websocket.Conn) {
		conn.WriteJSON(testSnap("web-1"))
		<-stop
	})
	t.Cleanup(func() { close(stop) })

	var mu sync.Mutex
	var states []State
	ch := New(WithBackoff(fastBackoff()), WithStateFunc(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}))

	ch.Connect(url, nil)
	waitFor(t, 2*time.Second, func() bool { return ch.State() == StateConnected }, "connected state")

	ch.Disconnect()
	waitFor(t, 2*time.Second, func() bool { return ch.State() == StateDisconnected }, "disconnected state")

	mu.Lock()
	defer mu.Unlock()
	want := []State{StateConnecting, StateConnected, StateDisconnected}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("states = %v, want %v", states, want)
		}
	}
}

func TestChannel_DisconnectStopsDeliveries(t *testing.T) {
	send := make(chan struct{}, 2)
	url := newStatsServer(t, func(conn *websocket.Conn) {
		for range send {
			if err := conn.WriteJSON(testSnap("web-1")); err != nil {
				return
			}
		}
	})

	ch := New(WithBackoff(fastBackoff()))

	var count atomic.Int32
	ch.Subscribe(func(u Update) { count.Add(1) })

	ch.Connect(url, nil)
	send <- struct{}{}
	waitFor(t, 2*time.Second, func() bool { return count.Load() == 1 }, "first delivery")

	ch.Disconnect()
	send <- struct{}{}
	close(send)

	time.Sleep(50 * time.Millisecond)
	if n := count.Load(); n != 1 {
		t.Fatalf("deliveries after Disconnect = %d, want 1", n)
	}
	if ch.State() != StateDisconnected {
		t.Fatalf("state = %v, want disconnected", ch.State())
	}
}

func TestChannel_GivesUpAfterMaxAttempts(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	ch := New(WithBackoff(Backoff{Base: time.Millisecond, Max: 2 * time.Millisecond, MaxAttempts: 2}))
	t.Cleanup(ch.Disconnect)

	ch.Connect(url, nil)

	waitFor(t, 2*time.Second, func() bool { return ch.State() == StateDisconnected }, "give-up transition")
}

// --- Backoff tests ---

func TestBackoff_Delay(t *testing.T) {
	b := Backoff{Base: 2 * time.Second, Max: 30 * time.Second}

	want := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}
	for i, w := range want {
		if got := b.Delay(i + 1); got != w {
			t.Errorf("Delay(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestBackoff_ZeroBase(t *testing.T) {
	b := Backoff{}
	if got := b.Delay(3); got != 0 {
		t.Errorf("Delay with zero base = %v, want 0", got)
	}
}
