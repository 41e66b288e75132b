// Package pubsub provides the two publication primitives used by the
// orchestrators: Value, a state holder that replays its latest value to new
// subscribers, and Events, a stream with no replay that never completes on
// its own.
package pubsub

import "sync"

// Value holds the latest T and broadcasts changes. Subscribers receive the
// current value immediately. A slow subscriber skips intermediate values
// and always ends on the newest one.
type Value[T any] struct {
	mu     sync.Mutex
	cur    T
	subs   map[int]chan T
	nextID int
	closed bool
}

// NewValue creates a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{cur: initial, subs: make(map[int]chan T)}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur
}

// Set stores x and notifies subscribers.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.cur = x
	for _, ch := range v.subs {
		replace(ch, x)
	}
}

// Subscribe returns a channel primed with the current value and a cancel
// func. The channel is closed on cancel or when the Value is closed.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ch := make(chan T, 1)
	if v.closed {
		close(ch)
		return ch, func() {}
	}
	ch <- v.cur
	id := v.nextID
	v.nextID++
	v.subs[id] = ch
	return ch, func() { v.unsubscribe(id) }
}

func (v *Value[T]) unsubscribe(id int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if ch, ok := v.subs[id]; ok {
		delete(v.subs, id)
		close(ch)
	}
}

// Close closes every subscriber channel. Later Sets are ignored.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	for id, ch := range v.subs {
		delete(v.subs, id)
		close(ch)
	}
}

// replace puts x into the single-slot channel, evicting a stale value.
// Callers hold the Value lock, so the only competitor is the reader.
func replace[T any](ch chan T, x T) {
	for {
		select {
		case ch <- x:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Events fans each published item out to the subscribers present at the
// time of publishing. Nothing is replayed. Publish never blocks: every
// subscriber has its own unbounded queue drained by a pump goroutine.
type Events[T any] struct {
	mu     sync.Mutex
	subs   map[int]*queue[T]
	nextID int
	closed bool
}

// NewEvents creates an empty event stream.
func NewEvents[T any]() *Events[T] {
	return &Events[T]{subs: make(map[int]*queue[T])}
}

// Publish delivers x to all current subscribers.
func (e *Events[T]) Publish(x T) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	for _, q := range e.subs {
		q.push(x)
	}
}

// Subscribe returns a channel of items published from now on and a cancel
// func. The channel is closed on cancel or when the stream is closed.
func (e *Events[T]) Subscribe() (<-chan T, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	q := newQueue[T]()
	if e.closed {
		q.close()
		return q.out, func() {}
	}
	id := e.nextID
	e.nextID++
	e.subs[id] = q
	go q.pump()
	return q.out, func() { e.unsubscribe(id) }
}

func (e *Events[T]) unsubscribe(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if q, ok := e.subs[id]; ok {
		delete(e.subs, id)
		q.stop()
	}
}

// Close ends every subscription after its pending items are delivered.
func (e *Events[T]) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for id, q := range e.subs {
		delete(e.subs, id)
		q.drainAndClose()
	}
}

type queue[T any] struct {
	mu      sync.Mutex
	items   []T
	ready   chan struct{}
	done    chan struct{}
	out     chan T
	closing bool
	once    sync.Once
}

func newQueue[T any]() *queue[T] {
	return &queue[T]{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
		out:   make(chan T),
	}
}

func (q *queue[T]) push(x T) {
	q.mu.Lock()
	q.items = append(q.items, x)
	q.mu.Unlock()
	q.signal()
}

func (q *queue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// stop discards pending items.
func (q *queue[T]) stop() {
	q.once.Do(func() { close(q.done) })
}

// drainAndClose lets the pump deliver what is queued, then close out.
func (q *queue[T]) drainAndClose() {
	q.mu.Lock()
	q.closing = true
	q.mu.Unlock()
	q.signal()
}

// close is used for subscriptions that never started a pump.
func (q *queue[T]) close() {
	close(q.out)
}

func (q *queue[T]) pump() {
	defer close(q.out)
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			closing := q.closing
			q.mu.Unlock()
			if closing {
				return
			}
			select {
			case <-q.ready:
				continue
			case <-q.done:
				return
			}
		}
		x := q.items[0]
		var zero T
		q.items[0] = zero
		q.items = q.items[1:]
		q.mu.Unlock()

		select {
		case q.out <- x:
		case <-q.done:
			return
		}
	}
}
