package cart

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sangambaral17/TradeMaster/pkg/enums"
)

const defaultSubscriberBuffer = 32

// Event describes one cart mutation and the cart state after it.
type Event struct {
	SessionID string              `json:"session_id"`
	Kind      enums.CartEventKind `json:"kind"`
	Cart      Summary             `json:"cart"`
	SaleID    *int64              `json:"sale_id,omitempty"`
	At        time.Time           `json:"at"`
}

// Notifier fans cart events out to subscribers. Publish never blocks: a
// subscriber whose buffer is full misses the event.
type Notifier struct {
	mu      sync.RWMutex
	subs    map[uint64]chan Event
	nextID  uint64
	buffer  int
	closed  bool
	dropped atomic.Uint64
}

func NewNotifier(buffer int) *Notifier {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Notifier{subs: make(map[uint64]chan Event), buffer: buffer}
}

// Subscribe registers a listener. The returned cancel func closes the channel;
// it is also closed when ctx ends or the notifier shuts down.
func (n *Notifier) Subscribe(ctx context.Context) (<-chan Event, func()) {
	n.mu.Lock()
	ch := make(chan Event, n.buffer)
	if n.closed {
		n.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := n.nextID
	n.nextID++
	n.subs[id] = ch
	n.mu.Unlock()

	var once sync.Once
	done := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			close(done)
			n.unsubscribe(id)
		})
	}
	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				cancel()
			case <-done:
			}
		}()
	}
	return ch, cancel
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if ch, ok := n.subs[id]; ok {
		delete(n.subs, id)
		close(ch)
	}
}

// Publish delivers event to every subscriber with room in its buffer.
func (n *Notifier) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, ch := range n.subs {
		select {
		case ch <- event:
		default:
			n.dropped.Add(1)
		}
	}
}

// Dropped reports how many deliveries were skipped because a subscriber lagged.
func (n *Notifier) Dropped() uint64 {
	return n.dropped.Load()
}

// Close ends every subscription. Later publishes are no-ops.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for id, ch := range n.subs {
		delete(n.subs, id)
		close(ch)
	}
}

// Run blocks until ctx is done and then closes the notifier.
func (n *Notifier) Run(ctx context.Context) error {
	<-ctx.Done()
	n.Close()
	return nil
}
