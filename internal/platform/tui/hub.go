package tui

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/time/rate"

	"github.com/mouradboutrid/geometry-dash-RL/internal/protocol"
)

// Source is the read-only view of the region a Hub polls.
// *protocol.Observer implements it.
type Source interface {
	Peek(dst *protocol.Snapshot) bool
	Commands() protocol.CommandState
}

// FrameMsg is one polled copy of the region.
type FrameMsg struct {
	Seq      uint64
	Snapshot protocol.Snapshot
	Commands protocol.CommandState
	Clean    bool // no producer write overlapped the copy
	At       time.Time
}

// Subscription receives frames from a Hub. When the buffer is full the
// oldest frame is dropped so a slow viewer never blocks the hub.
type Subscription struct {
	id       string
	frames   chan FrameMsg
	done     chan struct{}
	doneOnce sync.Once
}

func newSubscription(buffer int) *Subscription {
	if buffer < 1 {
		buffer = 4
	}
	return &Subscription{
		id:     uuid.NewString(),
		frames: make(chan FrameMsg, buffer),
		done:   make(chan struct{}),
	}
}

// ID returns the subscription identifier.
func (s *Subscription) ID() string {
	return s.id
}

// Frames returns the channel frames arrive on.
func (s *Subscription) Frames() <-chan FrameMsg {
	return s.frames
}

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) send(f FrameMsg) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.frames <- f:
	default:
		select {
		case <-s.frames:
		default:
		}
		select {
		case s.frames <- f:
		default:
		}
	}
}

func (s *Subscription) close() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

// Hub polls one Source at a fixed rate and fans the frames out to any
// number of subscribers. Viewers never touch the region themselves.
type Hub struct {
	src     Source
	limiter *rate.Limiter

	mu     deadlock.RWMutex
	subs   map[string]*Subscription
	latest FrameMsg
	seq    uint64
}

// NewHub returns a hub polling src pollHz times per second.
func NewHub(src Source, pollHz float64) *Hub {
	if pollHz <= 0 {
		pollHz = 30
	}
	return &Hub{
		src:     src,
		limiter: rate.NewLimiter(rate.Limit(pollHz), 1),
		subs:    make(map[string]*Subscription),
	}
}

// Subscribe registers a new viewer.
func (h *Hub) Subscribe(buffer int) *Subscription {
	s := newSubscription(buffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[s.id] = s
	return s
}

// Unsubscribe removes a viewer and closes its Done channel.
// Safe to call more than once.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	s, ok := h.subs[id]
	delete(h.subs, id)
	h.mu.Unlock()
	if ok {
		s.close()
	}
}

// Count returns the number of subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Latest returns the last polled frame. Seq is zero before the first poll.
func (h *Hub) Latest() FrameMsg {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// Poll reads the source once and delivers the frame to every subscriber.
func (h *Hub) Poll() FrameMsg {
	var f FrameMsg
	f.Clean = h.src.Peek(&f.Snapshot)
	f.Commands = h.src.Commands()
	f.At = time.Now()

	h.mu.Lock()
	h.seq++
	f.Seq = h.seq
	h.latest = f
	subs := make([]*Subscription, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		s.send(f)
	}
	return f
}

// Run polls until ctx is cancelled, then ends every subscription.
func (h *Hub) Run(ctx context.Context) error {
	defer h.closeAll()
	for {
		if err := h.limiter.Wait(ctx); err != nil {
			// the next poll would land past the deadline
			<-ctx.Done()
			return ctx.Err()
		}
		h.Poll()
	}
}

// Start runs the hub in its own goroutine. The returned stop function
// cancels polling and blocks until the hub no longer touches its source, so
// the caller may unmap the region right after it. Calling stop twice is fine.
func (h *Hub) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		//nolint:errcheck // returns only on cancellation
		h.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[string]*Subscription)
	h.mu.Unlock()
	for _, s := range subs {
		s.close()
	}
}
