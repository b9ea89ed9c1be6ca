package rx

import "sync"

// Subject is a hot multicast observable that is also an observer sink:
// values are pushed in by hand (or by wiring it up as an observer) and
// fanned out to every current subscriber.
//
// Mutation of the subscriber set and delivery are decoupled: each publish
// call copies a snapshot of the current subscribers under the lock and then
// delivers outside it, so a subscriber that subscribes or disposes from
// inside a callback cannot corrupt the in-progress broadcast. A subscriber
// disposed mid-broadcast still receives that broadcast's notification but no
// later one. Publishes from multiple goroutines are each internally
// consistent; ordering between them is not guaranteed.
type Subject[T any] struct {
	mu        sync.Mutex
	observers map[uint64]*Observer[T]
	done      bool
	err       error
}

func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{observers: make(map[uint64]*Observer[T])}
}

// Subscribe adds the observer to the fan-out set and returns a Disposable
// that removes it. Subscribing after the subject terminated immediately
// replays the terminal notification.
func (s *Subject[T]) Subscribe(observer *Observer[T]) Disposable {
	if observer == nil {
		observer = NewObserver[T](nil, nil, nil)
	}
	s.mu.Lock()
	if s.done {
		err := s.err
		s.mu.Unlock()
		if err != nil {
			observer.OnError(err)
		} else {
			observer.OnCompleted()
		}
		return Nop
	}
	id := observer.ID()
	s.observers[id] = observer
	s.mu.Unlock()

	return NewDisposable(func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	})
}

// SubscribeFunc subscribes with the given callbacks.
func (s *Subject[T]) SubscribeFunc(onNext func(T), onError func(error), onCompleted func()) Disposable {
	return s.Subscribe(NewObserver(onNext, onError, onCompleted))
}

// snapshot copies the current subscriber set; terminate additionally marks
// the subject done so later publishes are dropped and later subscribers get
// the terminal replay.
func (s *Subject[T]) snapshot(terminate bool, err error) []*Observer[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil
	}
	if terminate {
		s.done = true
		s.err = err
	}
	out := make([]*Observer[T], 0, len(s.observers))
	for _, o := range s.observers {
		out = append(out, o)
	}
	if terminate {
		s.observers = make(map[uint64]*Observer[T])
	}
	return out
}

func (s *Subject[T]) OnNext(value T) {
	for _, o := range s.snapshot(false, nil) {
		o.OnNext(value)
	}
}

func (s *Subject[T]) OnError(err error) {
	for _, o := range s.snapshot(true, err) {
		o.OnError(err)
	}
}

func (s *Subject[T]) OnCompleted() {
	for _, o := range s.snapshot(true, nil) {
		o.OnCompleted()
	}
}

// AsObserver adapts the subject into an Observer so another observable's
// notifications can be piped straight into the fan-out.
func (s *Subject[T]) AsObserver() *Observer[T] {
	return NewObserver(s.OnNext, s.OnError, s.OnCompleted)
}

// AsObservable exposes the subject as a plain observable.
func (s *Subject[T]) AsObservable() *Observable[T] {
	return Create(func(observer *Observer[T]) Disposable {
		return s.Subscribe(observer)
	})
}
