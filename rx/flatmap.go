package rx

import "sync"

// FlatMap projects each upstream value to an inner observable and merges
// every inner's emissions into the output in arrival order. Inner sequences
// are subscribed immediately as their values arrive, so concurrent inners
// interleave; nothing is buffered or sequenced.
//
// Completion is counted: one outstanding slot for the outer source plus one
// per live inner. The output completes exactly once, when the outer has
// completed and every inner has completed. The first error from anywhere
// disposes the whole group, cancelling in-flight inner work, and forwards
// exactly one OnError; later notifications racing past teardown are dropped.
func FlatMap[T, U any](source *Observable[T], f func(T) (*Observable[U], error)) *Observable[U] {
	return Create(func(downstream *Observer[U]) Disposable {
		group := NewCompositeDisposable()

		var mu sync.Mutex
		outstanding := 1 // the outer source

		fail := func(err error) {
			group.Dispose()
			downstream.OnError(err)
		}
		completeOne := func() {
			mu.Lock()
			outstanding--
			done := outstanding == 0
			mu.Unlock()
			if done {
				downstream.OnCompleted()
			}
		}

		outer := NewObserver(
			func(v T) {
				if group.IsDisposed() {
					return
				}
				inner, err := f(v)
				if err != nil {
					fail(&OperatorError{Err: err})
					return
				}
				mu.Lock()
				outstanding++
				mu.Unlock()
				group.Add(inner.Subscribe(NewObserver(
					func(u U) {
						if group.IsDisposed() {
							return
						}
						downstream.OnNext(u)
					},
					fail,
					completeOne,
				)))
			},
			fail,
			completeOne,
		)
		group.Add(source.Subscribe(outer))
		return group
	})
}
