// Package notify is the transient notification container: a value set on an
// action and cleared automatically after a fixed delay. Components take an
// explicit *Notifier handle instead of reaching into shared globals.
package notify

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

const DefaultTTL = 3 * time.Second

// Event is delivered to subscribers on every publish and clear.
type Event struct {
	Message string
	Visible bool
}

type Notifier struct {
	ttl     time.Duration
	visible *atomic.Bool
	gen     *atomic.Int64
	mu      sync.Mutex
	message string
	timer   *time.Timer
	subs    []func(Event)
}

func New(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Notifier{
		ttl:     ttl,
		visible: atomic.NewBool(false),
		gen:     atomic.NewInt64(0),
	}
}

// Set publishes a message and arms the auto-clear timer. A later Set
// supersedes any pending clear, so the newest message always gets the full
// TTL.
func (n *Notifier) Set(message string) {
	gen := n.gen.Inc()

	n.mu.Lock()
	n.message = message
	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = time.AfterFunc(n.ttl, func() {
		n.expire(gen)
	})
	subs := n.snapshotSubs()
	n.mu.Unlock()

	n.visible.Store(true)
	for _, fn := range subs {
		fn(Event{Message: message, Visible: true})
	}
}

// Clear drops the current message immediately.
func (n *Notifier) Clear() {
	n.gen.Inc()
	n.doClear()
}

// Message returns the current value and whether it is visible.
func (n *Notifier) Message() (string, bool) {
	if !n.visible.Load() {
		return "", false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.message, n.visible.Load()
}

func (n *Notifier) Subscribe(fn func(Event)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, fn)
}

// expire runs from the timer goroutine; a generation mismatch means a newer
// Set or Clear superseded this timer.
func (n *Notifier) expire(gen int64) {
	if gen != n.gen.Load() {
		return
	}
	n.doClear()
}

func (n *Notifier) doClear() {
	n.mu.Lock()
	n.message = ""
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	subs := n.snapshotSubs()
	n.mu.Unlock()

	n.visible.Store(false)
	for _, fn := range subs {
		fn(Event{Visible: false})
	}
}

func (n *Notifier) snapshotSubs() []func(Event) {
	subs := make([]func(Event), len(n.subs))
	copy(subs, n.subs)
	return subs
}
