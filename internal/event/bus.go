package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Listener reacts to a published event. A returned error makes the bus retry.
type Listener interface {
	Handle(ctx context.Context, ev Event) error
}

// ListenerFunc adapts a plain function to Listener.
type ListenerFunc func(ctx context.Context, ev Event) error

func (f ListenerFunc) Handle(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Publisher is what services depend on. Publish never blocks and never fails
// the caller.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// DeadLetterSink receives events whose listener exhausted every attempt.
type DeadLetterSink interface {
	DeadLetter(ctx context.Context, ev Event, listener string, reason error, attempts int)
}

// AllEvents subscribes a listener to every event name.
const AllEvents = "*"

type subscription struct {
	name     string
	listener Listener
}

type envelope struct {
	ctx context.Context
	ev  Event
}

// Bus is an in-process pub/sub bus backed by a bounded queue and a pool of
// worker goroutines. Full queue means the event is dropped and logged.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]subscription
	queue  chan envelope
	closed bool
	wg     sync.WaitGroup

	dlq         DeadLetterSink
	maxAttempts int
	backoff     time.Duration
	onDrop      func(Event)
}

// Option configures a Bus.
type Option func(*Bus)

func WithDeadLetter(sink DeadLetterSink) Option { return func(b *Bus) { b.dlq = sink } }

// WithRetry sets attempts per listener and the linear backoff step between them.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(b *Bus) {
		if attempts > 0 {
			b.maxAttempts = attempts
		}
		b.backoff = backoff
	}
}

// WithDropHook is called for every event rejected because the queue was full.
func WithDropHook(fn func(Event)) Option { return func(b *Bus) { b.onDrop = fn } }

func NewBus(queueSize int, opts ...Option) *Bus {
	if queueSize <= 0 {
		queueSize = 1024
	}
	b := &Bus{
		subs:        make(map[string][]subscription),
		queue:       make(chan envelope, queueSize),
		maxAttempts: 3,
		backoff:     100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers listener under a diagnostic name for eventName
// (or AllEvents).
func (b *Bus) Subscribe(eventName, name string, l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], subscription{name: name, listener: l})
}

// Publish queues ev for asynchronous delivery. The request context is detached
// from cancellation so listeners outlive the HTTP response but keep its values
// (trace span, request id).
func (b *Bus) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		log.Warn().Str("event", ev.Name()).Msg("event bus closed, event dropped")
		return
	}
	select {
	case b.queue <- envelope{ctx: context.WithoutCancel(ctx), ev: ev}:
	default:
		log.Warn().Str("event", ev.Name()).Int("queue_size", cap(b.queue)).Msg("event queue full, event dropped")
		if b.onDrop != nil {
			b.onDrop(ev)
		}
	}
}

// Start launches numWorkers goroutines draining the queue.
func (b *Bus) Start(numWorkers int) {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	for i := 0; i < numWorkers; i++ {
		b.wg.Add(1)
		go b.run(i)
	}
	log.Info().Msgf("event bus started with %d workers", numWorkers)
}

// Close stops accepting events and waits for queued ones to be delivered or
// for ctx to expire.
func (b *Bus) Close(ctx context.Context) error {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) run(id int) {
	defer b.wg.Done()
	for env := range b.queue {
		b.dispatch(env.ctx, env.ev)
	}
	log.Debug().Msgf("event worker %d shutting down", id)
}

func (b *Bus) listenersFor(name string) []subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]subscription, 0, len(b.subs[name])+len(b.subs[AllEvents]))
	out = append(out, b.subs[name]...)
	return append(out, b.subs[AllEvents]...)
}

func (b *Bus) dispatch(ctx context.Context, ev Event) {
	for _, sub := range b.listenersFor(ev.Name()) {
		var err error
		for attempt := 1; attempt <= b.maxAttempts; attempt++ {
			if err = safeHandle(ctx, sub.listener, ev); err == nil {
				break
			}
			log.Warn().Err(err).
				Str("event", ev.Name()).
				Str("listener", sub.name).
				Int("attempt", attempt).
				Msg("event listener failed")
			if attempt < b.maxAttempts && b.backoff > 0 {
				time.Sleep(time.Duration(attempt) * b.backoff)
			}
		}
		if err != nil && b.dlq != nil {
			b.dlq.DeadLetter(ctx, ev, sub.name, err, b.maxAttempts)
		}
	}
}

func safeHandle(ctx context.Context, l Listener, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return l.Handle(ctx, ev)
}

// Recorder collects events in memory. Safe for concurrent use; handy in tests
// and as a no-op publisher.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Named returns the published events whose Name matches.
func (r *Recorder) Named(name string) []Event {
	var out []Event
	for _, ev := range r.Events() {
		if ev.Name() == name {
			out = append(out, ev)
		}
	}
	return out
}
