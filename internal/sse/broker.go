// Package sse streams sync progress to HTTP clients as Server-Sent Events.
package sse

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Event names.
const (
	TypeSnapshotUpdated  = "snapshot.updated"
	TypeInstallCompleted = "install.completed"
	TypeLedgerUpdated    = "ledger.updated"
)

// Event is one named message; Data is sent as JSON.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// InstallEvent is the payload of install.completed.
type InstallEvent struct {
	Variant   string `json:"variant"`
	SubjectID int    `json:"subject_id"`
	Label     string `json:"label"`
	Status    string `json:"status"`
	Attempts  int    `json:"attempts"`
	Error     string `json:"error,omitempty"`
}

const streamBuffer = 64

// heartbeat is how often an idle stream gets a comment line.
var heartbeat = 15 * time.Second

// Broker fans frames out to every open stream. Its state is owned by one
// goroutine; exported methods hand that goroutine an op to run.
type Broker struct {
	ops      chan func(*hub)
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

type hub struct {
	streams     map[chan []byte]struct{}
	ledgerEvery time.Duration
	lastLedger  map[string]time.Time // per variant
}

// NewBroker creates a broker. ledger.updated is sent at most once per
// ledgerEvery for each variant.
func NewBroker(ledgerEvery time.Duration) *Broker {
	if ledgerEvery <= 0 {
		ledgerEvery = 2 * time.Second
	}
	b := &Broker{
		ops:  make(chan func(*hub), 256),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	h := &hub{
		streams:     make(map[chan []byte]struct{}),
		ledgerEvery: ledgerEvery,
		lastLedger:  make(map[string]time.Time),
	}
	go b.loop(h)
	return b
}

func (b *Broker) loop(h *hub) {
	defer close(b.done)
	for {
		select {
		case <-b.stop:
			for ch := range h.streams {
				close(ch)
			}
			return
		case op := <-b.ops:
			op(h)
		}
	}
}

// do queues op for the loop. It reports false once the broker is closed.
func (b *Broker) do(op func(*hub)) bool {
	select {
	case <-b.done:
		return false
	default:
	}
	select {
	case b.ops <- op:
		return true
	case <-b.done:
		return false
	}
}

// send delivers frame to every stream. A stream whose buffer is full
// misses the frame.
func (h *hub) send(frame []byte) {
	for ch := range h.streams {
		select {
		case ch <- frame:
		default:
		}
	}
}

func (h *hub) ledgerDue(variant string, now time.Time) bool {
	if now.Sub(h.lastLedger[variant]) < h.ledgerEvery {
		return false
	}
	h.lastLedger[variant] = now
	return true
}

func encode(ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, err
	}
	return fmt.Appendf(nil, "event: %s\ndata: %s\n\n", ev.Type, payload), nil
}

// Close ends every stream and stops the broker. Later calls are no-ops.
func (b *Broker) Close() {
	b.stopOnce.Do(func() { close(b.stop) })
	<-b.done
}

// Subscribe opens a stream. The channel is closed by Unsubscribe or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, streamBuffer)
	added := make(chan struct{})
	if !b.do(func(h *hub) {
		h.streams[ch] = struct{}{}
		close(added)
	}) {
		close(ch)
		return ch
	}

	select {
	case <-added:
	case <-b.done:
		// The op may have run just before shutdown, in which case the loop
		// already closed ch.
		select {
		case <-added:
		default:
			close(ch)
		}
	}
	return ch
}

// Unsubscribe closes a stream opened by Subscribe.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.do(func(h *hub) {
		if _, ok := h.streams[ch]; ok {
			delete(h.streams, ch)
			close(ch)
		}
	})
}

// ClientCount returns the number of open streams.
func (b *Broker) ClientCount() int {
	n := make(chan int, 1)
	if !b.do(func(h *hub) { n <- len(h.streams) }) {
		return 0
	}
	select {
	case v := <-n:
		return v
	case <-b.done:
		select {
		case v := <-n:
			return v
		default:
			return 0
		}
	}
}

// Publish sends ev to every open stream.
func (b *Broker) Publish(ev Event) {
	frame, err := encode(ev)
	if err != nil {
		return
	}
	b.do(func(h *hub) { h.send(frame) })
}

// PublishSnapshot announces that the snapshot under key was rewritten.
func (b *Broker) PublishSnapshot(key string) {
	b.Publish(Event{Type: TypeSnapshotUpdated, Data: map[string]string{"key": key}})
}

// PublishInstall announces one install outcome, followed by ledger.updated
// for its variant unless one went out recently.
func (b *Broker) PublishInstall(ev InstallEvent) {
	frame, err := encode(Event{Type: TypeInstallCompleted, Data: ev})
	if err != nil {
		return
	}
	ledger, err := encode(Event{Type: TypeLedgerUpdated, Data: map[string]string{"variant": ev.Variant}})
	if err != nil {
		return
	}
	b.do(func(h *hub) {
		h.send(frame)
		if h.ledgerDue(ev.Variant, time.Now()) {
			h.send(ledger)
		}
	})
}

// ServeHTTP streams events to one client until it disconnects.
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

	tick := time.NewTicker(heartbeat)
	defer tick.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case frame, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(frame)
			flusher.Flush()
		}
	}
}
