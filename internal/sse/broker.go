// Package sse streams build notifications to browsers connected to the dev
// server so open pages reload after a rebuild.
package sse

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Event types sent to clients.
const (
	EventBuildStarted   = "build.started"
	EventBuildCompleted = "build.completed"
	EventBuildFailed    = "build.failed"
)

// clientBuffer is the number of undelivered messages a client may hold
// before new ones are dropped.
const clientBuffer = 64

// Event is one message for every connected client.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// BuildStatus describes the outcome of one site build.
type BuildStatus struct {
	Posts      int    `json:"posts"`
	Pages      int    `json:"pages"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

var keepAliveMsg = []byte(": keep-alive\n\n")

// Broker fans events out to SSE clients. A failed build is kept and sent to
// clients that connect later, so a page opened while the site is broken
// still learns about it. A successful build clears it; replaying
// build.completed would make every freshly loaded page reload again.
//
// The client set is owned by a single loop goroutine; public methods talk
// to it over channels.
type Broker struct {
	keepAlive time.Duration

	join   chan chan []byte
	leave  chan chan []byte
	events chan Event
	count  chan chan int

	quit    chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker that writes a comment line to every client each
// keepAlive interval. A non-positive interval defaults to 30s.
func NewBroker(keepAlive time.Duration) *Broker {
	if keepAlive <= 0 {
		keepAlive = 30 * time.Second
	}
	b := &Broker{
		keepAlive: keepAlive,
		join:      make(chan chan []byte),
		leave:     make(chan chan []byte),
		events:    make(chan Event, 256),
		count:     make(chan chan int),
		quit:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go b.loop()
	return b
}

// encode renders ev in the text/event-stream format.
func encode(id uint64, ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString("id: ")
	buf.WriteString(strconv.FormatUint(id, 10))
	buf.WriteString("\nevent: ")
	buf.WriteString(ev.Type)
	buf.WriteString("\ndata: ")
	buf.Write(payload)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}

func (b *Broker) loop() {
	defer close(b.stopped)

	var (
		clients = make(map[chan []byte]struct{})
		lastID  uint64
		failed  []byte // latest build.failed, until a build succeeds
	)
	ticker := time.NewTicker(b.keepAlive)
	defer ticker.Stop()

	deliver := func(ch chan []byte, msg []byte) {
		select {
		case ch <- msg:
		default:
			// Slow client; drop rather than stall the loop.
		}
	}

	for {
		select {
		case <-b.quit:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.join:
			clients[ch] = struct{}{}
			if failed != nil {
				deliver(ch, failed)
			}

		case ch := <-b.leave:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case ev := <-b.events:
			lastID++
			msg, err := encode(lastID, ev)
			if err != nil {
				continue
			}
			switch ev.Type {
			case EventBuildFailed:
				failed = msg
			case EventBuildCompleted:
				failed = nil
			}
			for ch := range clients {
				deliver(ch, msg)
			}

		case <-ticker.C:
			for ch := range clients {
				deliver(ch, keepAliveMsg)
			}

		case resp := <-b.count:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes every client channel. It is safe to call
// more than once.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.quit)
	}
	<-b.stopped
}

// Subscribe registers a client. The returned channel is closed by
// Unsubscribe or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.join <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.leave <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.count <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish queues ev for every connected client.
func (b *Broker) Publish(ev Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.events <- ev:
	case <-b.stopped:
	}
}

// PublishBuildStarted announces that a rebuild began.
func (b *Broker) PublishBuildStarted() {
	b.Publish(Event{Type: EventBuildStarted, Data: map[string]string{}})
}

// PublishBuild announces a finished build. A non-empty status.Error marks
// it as failed.
func (b *Broker) PublishBuild(status BuildStatus) {
	typ := EventBuildCompleted
	if status.Error != "" {
		typ = EventBuildFailed
	}
	b.Publish(Event{Type: typ, Data: status})
}

// ServeHTTP streams events to one client (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	// Reconnect quickly when the dev server restarts.
	_, _ = w.Write([]byte("retry: 1000\n\n"))
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-ch:
			if !open {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
