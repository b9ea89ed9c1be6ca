// Package rx is a minimal reactive-streams library: cold observables built
// from a subscribe function, hot multicast subjects, composable disposables
// and the map/filter/flatmap operators, all safe to drive from arbitrary
// goroutines.
package rx

// Observable is a cold, lazy, repeatable description of how to produce a
// notification sequence for one subscriber. Nothing runs until Subscribe is
// called, and every Subscribe re-runs the producer from scratch; subscribers
// share nothing unless the producer itself multicasts (see Subject).
type Observable[T any] struct {
	onSubscribe func(*Observer[T]) Disposable
}

// Create builds an observable from a subscribe function. The function is
// invoked once per Subscribe call with the subscribing observer and returns
// a Disposable that cancels whatever work the producer started.
func Create[T any](onSubscribe func(*Observer[T]) Disposable) *Observable[T] {
	return &Observable[T]{onSubscribe: onSubscribe}
}

// Subscribe starts the producer for this observer and returns a Disposable
// that stops further notifications and releases the producer's resources.
func (o *Observable[T]) Subscribe(observer *Observer[T]) Disposable {
	if observer == nil {
		observer = NewObserver[T](nil, nil, nil)
	}
	d := o.onSubscribe(observer)
	if d == nil {
		return Nop
	}
	return d
}

// SubscribeFunc subscribes with the given callbacks. See NewObserver for the
// nil-callback semantics.
func (o *Observable[T]) SubscribeFunc(onNext func(T), onError func(error), onCompleted func()) Disposable {
	return o.Subscribe(NewObserver(onNext, onError, onCompleted))
}

// Just emits the given values in order, then completes.
func Just[T any](values ...T) *Observable[T] {
	return Create(func(observer *Observer[T]) Disposable {
		for _, v := range values {
			observer.OnNext(v)
		}
		observer.OnCompleted()
		return Nop
	})
}

// Empty completes immediately on subscribe without emitting anything.
func Empty[T any]() *Observable[T] {
	return Create(func(observer *Observer[T]) Disposable {
		observer.OnCompleted()
		return Nop
	})
}

// Throw delivers err on subscribe. Like every constructor, nothing happens
// before Subscribe: the error is delivered once per subscriber.
func Throw[T any](err error) *Observable[T] {
	return Create(func(observer *Observer[T]) Disposable {
		observer.OnError(err)
		return Nop
	})
}

// FromChan adapts a channel into an observable. Each subscriber gets its own
// pump goroutine reading from ch until it is closed (completion) or the
// subscription is disposed. With multiple concurrent subscribers, values are
// distributed, not duplicated; multicast wants a Subject instead.
func FromChan[T any](ch <-chan T) *Observable[T] {
	return Create(func(observer *Observer[T]) Disposable {
		stop := make(chan struct{})
		go func() {
			for {
				select {
				case v, ok := <-ch:
					if !ok {
						observer.OnCompleted()
						return
					}
					observer.OnNext(v)
				case <-stop:
					return
				}
			}
		}()
		return NewDisposable(func() { close(stop) })
	})
}
