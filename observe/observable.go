package observe

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// subscriptionCounter generates unique subscription ids.
var subscriptionCounter int64

// Listener receives values from an Observable. Any field may be nil.
type Listener[T any] struct {
	// Next is invoked for every published value.
	Next func(T)
	// Err is invoked when the publisher signals an error.
	Err func(error)
	// Done is invoked once when the observable completes.
	Done func()
}

// Subscription is the handle returned by Subscribe.
type Subscription[T any] struct {
	id  int64
	obs *Observable[T]
}

// Unsubscribe removes the listener. Safe to call during an in-flight
// delivery pass; the pass it interrupts still completes with the subscriber
// set it started with.
func (s *Subscription[T]) Unsubscribe() {
	if s.obs == nil {
		return
	}
	s.obs.remove(s.id)
}

type subEntry[T any] struct {
	id       int64
	listener Listener[T]
}

// Observable is a minimal publish/subscribe channel. Values are delivered
// to listeners in registration order. A listener that panics during
// delivery is reported to the diagnostic logger and never prevents
// delivery to the remaining listeners, nor does the failure propagate to
// the publisher.
//
// Concurrent publishers are serialized, so delivery to each listener is
// serialized as well.
type Observable[T any] struct {
	mu        sync.Mutex // guards subs and completed
	deliverMu sync.Mutex // serializes delivery passes
	subs      []subEntry[T]
	completed bool
	logger    *zap.Logger
}

// NewObservable creates an Observable reporting delivery failures to logger.
// A nil logger defaults to zap.NewNop.
func NewObservable[T any](logger *zap.Logger) *Observable[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Observable[T]{logger: logger}
}

// Subscribe registers a listener and returns its subscription handle.
// Subscribing after Complete invokes Done immediately and returns an inert
// handle.
func (o *Observable[T]) Subscribe(l Listener[T]) *Subscription[T] {
	o.mu.Lock()
	if o.completed {
		o.mu.Unlock()
		o.safeDone(l)
		return &Subscription[T]{}
	}
	id := atomic.AddInt64(&subscriptionCounter, 1)
	o.subs = append(o.subs, subEntry[T]{id: id, listener: l})
	o.mu.Unlock()
	return &Subscription[T]{id: id, obs: o}
}

// Publish delivers the value to every currently registered listener in
// registration order. Publishing after Complete is a no-op.
func (o *Observable[T]) Publish(v T) {
	o.deliverMu.Lock()
	defer o.deliverMu.Unlock()

	for _, e := range o.snapshot() {
		o.safeNext(e.listener, v)
	}
}

// Fail delivers an error signal to every listener. The subscriber set is
// left intact; only Complete clears it.
func (o *Observable[T]) Fail(err error) {
	o.deliverMu.Lock()
	defer o.deliverMu.Unlock()

	for _, e := range o.snapshot() {
		o.safeErr(e.listener, err)
	}
}

// Complete delivers a completion signal to every listener, then clears the
// subscriber set. Further Publish calls are no-ops.
func (o *Observable[T]) Complete() {
	o.deliverMu.Lock()
	defer o.deliverMu.Unlock()

	o.mu.Lock()
	if o.completed {
		o.mu.Unlock()
		return
	}
	subs := o.subs
	o.subs = nil
	o.completed = true
	o.mu.Unlock()

	for _, e := range subs {
		o.safeDone(e.listener)
	}
}

// Len returns the number of registered listeners.
func (o *Observable[T]) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}

// snapshot copies the subscriber set so that subscribe/unsubscribe during a
// delivery pass does not affect the in-flight pass.
func (o *Observable[T]) snapshot() []subEntry[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.completed {
		return nil
	}
	return append([]subEntry[T](nil), o.subs...)
}

func (o *Observable[T]) remove(id int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, e := range o.subs {
		if e.id == id {
			o.subs = append(o.subs[:i], o.subs[i+1:]...)
			return
		}
	}
}

func (o *Observable[T]) safeNext(l Listener[T], v T) {
	if l.Next == nil {
		return
	}
	defer o.recoverDelivery()
	l.Next(v)
}

func (o *Observable[T]) safeErr(l Listener[T], err error) {
	if l.Err == nil {
		return
	}
	defer o.recoverDelivery()
	l.Err(err)
}

func (o *Observable[T]) safeDone(l Listener[T]) {
	if l.Done == nil {
		return
	}
	defer o.recoverDelivery()
	l.Done()
}

func (o *Observable[T]) recoverDelivery() {
	if r := recover(); r != nil {
		o.logger.Error("observer delivery failed", zap.Any("recover", r))
	}
}
