package rx

import (
	"fmt"
	"sync/atomic"
)

// observerID hands out process-wide unique observer identities. The id is
// only ever compared for equality (subscriber removal), never ordered.
var observerID atomic.Uint64

// Observer consumes the notifications of an observable sequence. It wraps up
// to three callbacks, any of which may be nil: a nil onNext drops values, a
// nil onCompleted drops completion, and a nil onError panics, because an
// unobserved error is a programming error rather than a recoverable
// condition. Callers expecting errors must supply a handler.
//
// An observer is terminal-gated: after it has received OnError or
// OnCompleted once, every further notification is discarded. Producers are
// expected to stop at the first terminal notification; the gate keeps
// misbehaving producers from leaking past it.
type Observer[T any] struct {
	id        uint64
	next      func(T)
	err       func(error)
	completed func()
	done      atomic.Bool
}

func NewObserver[T any](onNext func(T), onError func(error), onCompleted func()) *Observer[T] {
	return &Observer[T]{
		id:        observerID.Add(1),
		next:      onNext,
		err:       onError,
		completed: onCompleted,
	}
}

// ID returns the observer's unique identity.
func (o *Observer[T]) ID() uint64 {
	return o.id
}

func (o *Observer[T]) OnNext(value T) {
	if o.done.Load() {
		return
	}
	if o.next != nil {
		o.next(value)
	}
}

func (o *Observer[T]) OnError(err error) {
	if !o.done.CompareAndSwap(false, true) {
		return
	}
	if o.err == nil {
		panic(fmt.Sprintf("rx: unhandled error on observer %d: %v", o.id, err))
	}
	o.err(err)
}

func (o *Observer[T]) OnCompleted() {
	if !o.done.CompareAndSwap(false, true) {
		return
	}
	if o.completed != nil {
		o.completed()
	}
}

// Notify dispatches a notification to the matching callback.
func (o *Observer[T]) Notify(n Notification[T]) {
	switch n.Kind() {
	case OnNext:
		o.OnNext(n.Value())
	case OnError:
		o.OnError(n.Err())
	case OnCompleted:
		o.OnCompleted()
	}
}
