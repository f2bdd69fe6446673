package bus

import (
	"sync"

	"github.com/google/uuid"

	"github.com/SmolSoftBoi/compressarr/internal/logger"
)

// Handler processes one dispatched event. Handlers are expected to return
// promptly; there is no back-pressure mechanism, and a handler that blocks
// stalls its publisher.
type Handler func(data any) error

// Bus is a typed, synchronous, in-process publish/subscribe dispatcher.
// Publish delivers to every handler subscribed at call time, synchronously,
// in subscription order, on the publisher's own goroutine — it returns only
// once every handler has run. Subscribers added during a dispatch do not
// receive that dispatch; late subscribers never receive replay.
//
// Publish is safe to call from within a handler (a scheduler's advance, for
// instance, republishes REGISTER_JOB from inside its REGISTER_MEDIA
// handler): the subscriber map is only locked long enough to snapshot the
// handler list, never while handlers run.
//
// Publish is also safe to call concurrently from independent producer
// goroutines (distinct job-runner tasks, for instance); ordering across
// distinct producers is not guaranteed, so any shared state a set of
// handlers mutates must be guarded by that component's own mutex — the bus
// only guarantees per-producer publication order.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Kind][]Handler
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subscribers: make(map[Kind][]Handler)}
}

// Subscribe registers handler to run on every future Publish(kind, ...).
func (b *Bus) Subscribe(kind Kind, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[kind] = append(b.subscribers[kind], handler)
}

// Publish dispatches data to every handler currently subscribed to kind, in
// subscription order, synchronously.
func (b *Bus) Publish(kind Kind, data any) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.subscribers[kind]))
	copy(handlers, b.subscribers[kind])
	b.mu.RUnlock()

	log := logger.Bus()
	id := uuid.NewString()

	for _, h := range handlers {
		if err := h(data); err != nil {
			log.Error().Err(err).Str("event", string(kind)).Str("dispatch_id", id).Msg("handler returned error")
		}
	}
}
