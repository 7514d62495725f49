package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func receive(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg := <-ch:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
		return ""
	}
}

func TestPublishBuild(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishBuildStarted()
	if s := receive(t, ch); !strings.Contains(s, "event: build.started") {
		t.Errorf("missing started event in %q", s)
	}

	b.PublishBuild(BuildStatus{Posts: 3, Pages: 1, DurationMS: 12})
	s := receive(t, ch)
	if !strings.Contains(s, "event: build.completed") {
		t.Errorf("missing completed event in %q", s)
	}
	if !strings.Contains(s, `"posts":3`) || strings.Contains(s, `"error"`) {
		t.Errorf("unexpected payload in %q", s)
	}

	b.PublishBuild(BuildStatus{Error: "parser: a.md: invalid frontmatter"})
	s = receive(t, ch)
	if !strings.Contains(s, "event: build.failed") || !strings.Contains(s, "invalid frontmatter") {
		t.Errorf("failed build payload = %q", s)
	}
}

func TestFailedBuildReplayedToNewClients(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()

	first := b.Subscribe()
	b.PublishBuild(BuildStatus{Posts: 1})
	b.PublishBuild(BuildStatus{Error: "boom"})
	// Both events have been handled once the first client has seen them.
	receive(t, first)
	receive(t, first)
	b.Unsubscribe(first)

	late := b.Subscribe()
	defer b.Unsubscribe(late)
	s := receive(t, late)
	if !strings.Contains(s, "event: build.failed") || !strings.Contains(s, "boom") {
		t.Errorf("replayed = %q", s)
	}
	select {
	case extra := <-late:
		t.Errorf("only the failed build is replayed, got %q", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCompletedBuildNotReplayed(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()

	first := b.Subscribe()
	b.PublishBuild(BuildStatus{Error: "boom"})
	b.PublishBuild(BuildStatus{Posts: 1})
	receive(t, first)
	receive(t, first)
	b.Unsubscribe(first)

	late := b.Subscribe()
	defer b.Unsubscribe(late)
	select {
	case msg := <-late:
		t.Errorf("new client after a successful build got %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSSEHandler_NoReloadAfterSuccessfulBuild(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()
	first := b.Subscribe()
	b.PublishBuild(BuildStatus{Posts: 1})
	receive(t, first)
	b.Unsubscribe(first)

	srv := httptest.NewServer(b)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	deadline := time.Now().Add(time.Second)
	for b.ClientCount() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	b.PublishBuildStarted()

	// The first event frame must be the new build.started, not a replay.
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			if line != "event: build.started" {
				t.Errorf("first event = %q", line)
			}
			return
		}
	}
	t.Errorf("stream ended without an event: %v", scanner.Err())
}

func TestEncode(t *testing.T) {
	msg, err := encode(7, Event{Type: EventBuildStarted, Data: map[string]string{}})
	if err != nil {
		t.Fatal(err)
	}
	if got := string(msg); got != "id: 7\nevent: build.started\ndata: {}\n\n" {
		t.Errorf("encode = %q", got)
	}
}

func TestKeepAlive(t *testing.T) {
	b := NewBroker(20 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	if s := receive(t, ch); !strings.HasPrefix(s, ": keep-alive") {
		t.Errorf("keep-alive = %q", s)
	}
}

type syncRecorder struct {
	*httptest.ResponseRecorder
	mu sync.Mutex
}

func (r *syncRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(p)
}

func (r *syncRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Body.String()
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for b.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 1 client from handler")
		}
		time.Sleep(5 * time.Millisecond)
	}

	b.PublishBuild(BuildStatus{Posts: 1})
	deadline = time.Now().Add(time.Second)
	for !strings.Contains(w.body(), "event: build.completed") {
		if time.Now().After(deadline) {
			t.Fatalf("handler output missing event: %q", w.body())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done

	if !strings.HasPrefix(w.body(), "retry: 1000") {
		t.Errorf("stream should start with a retry hint: %q", w.body())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content-type = %q", ct)
	}
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Buffer holds 64; the rest must be dropped without blocking.
	for i := 0; i < 70; i++ {
		b.PublishBuild(BuildStatus{Posts: i})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(time.Minute)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	b.PublishBuildStarted()
	b.PublishBuild(BuildStatus{})
}
