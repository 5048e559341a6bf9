// Package sse broadcasts server events to browsers over Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event is one broadcast message. Data is sent as JSON.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Publisher is the side of the broker producers depend on.
type Publisher interface {
	Publish(event Event)
	PublishThrottled(key string, event Event)
}

type throttledReq struct {
	key   string
	event Event
}

// Broker fans events out to connected clients.
//
// A single goroutine owns the client set and the throttle windows; the
// public methods talk to it over channels.
type Broker struct {
	throttle  time.Duration
	keepAlive time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	throttledCh   chan throttledReq
	flushCh       chan string
	countReqCh    chan chan int
	keysReqCh     chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker. Throttled events sharing a key are sent at most
// once per throttle interval, and the latest one held back is sent when the
// interval ends. Idle streams get a comment line every keepAlive; zero
// disables it.
func NewBroker(throttle, keepAlive time.Duration) *Broker {
	if throttle <= 0 {
		throttle = 100 * time.Millisecond
	}
	b := &Broker{
		throttle:      throttle,
		keepAlive:     keepAlive,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		throttledCh:   make(chan throttledReq, 256),
		flushCh:       make(chan string),
		countReqCh:    make(chan chan int),
		keysReqCh:     make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	// A key is in windows while its throttle interval runs; pending holds
	// the newest event that arrived during it.
	windows := make(map[string]struct{})
	pending := make(map[string]Event)

	closeAfter := func(key string) {
		time.AfterFunc(b.throttle, func() {
			select {
			case b.flushCh <- key:
			case <-b.stopped:
			}
		})
	}

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// slow client; drop rather than block the loop
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.throttledCh:
			if _, open := windows[req.key]; open {
				pending[req.key] = req.event
				continue
			}
			windows[req.key] = struct{}{}
			broadcast(req.event)
			closeAfter(req.key)

		case key := <-b.flushCh:
			event, ok := pending[key]
			if !ok {
				delete(windows, key)
				continue
			}
			delete(pending, key)
			broadcast(event)
			closeAfter(key)

		case resp := <-b.countReqCh:
			resp <- len(clients)

		case resp := <-b.keysReqCh:
			resp <- len(windows)
		}
	}
}

// Close stops the loop and closes every client channel. Safe to call twice.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client. The channel is closed on Unsubscribe or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
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

// throttledKeys reports how many keys have an open throttle window.
func (b *Broker) throttledKeys() int {
	resp := make(chan int, 1)
	select {
	case b.keysReqCh <- resp:
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

// Publish sends event to every client.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishThrottled sends event at once unless another event with the same
// key went out less than the throttle interval ago. In that case it replaces
// any event already held for the key and is sent when the interval ends.
func (b *Broker) PublishThrottled(key string, event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.throttledCh <- throttledReq{key: key, event: event}:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	var tick <-chan time.Time
	if b.keepAlive > 0 {
		t := time.NewTicker(b.keepAlive)
		defer t.Stop()
		tick = t.C
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
