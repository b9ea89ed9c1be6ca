package rx

// OperatorError wraps an error returned by a caller-supplied projection or
// predicate. It is delivered downstream as a terminal OnError; the value
// that triggered it is suppressed.
type OperatorError struct {
	Err error
}

func (e *OperatorError) Error() string {
	return "rx: operator failed: " + e.Err.Error()
}

func (e *OperatorError) Unwrap() error {
	return e.Err
}

// Operators are free functions rather than methods because Go methods cannot
// introduce new type parameters.

// Map transforms each upstream value with f. If f fails, the triggering
// value is suppressed, the upstream subscription is disposed and a single
// terminal OnError carrying an *OperatorError is delivered instead.
func Map[T, U any](source *Observable[T], f func(T) (U, error)) *Observable[U] {
	return Create(func(downstream *Observer[U]) Disposable {
		sub := NewSerialDisposable()
		upstream := NewObserver(
			func(v T) {
				if sub.IsDisposed() {
					return
				}
				u, err := f(v)
				if err != nil {
					sub.Dispose()
					downstream.OnError(&OperatorError{Err: err})
					return
				}
				downstream.OnNext(u)
			},
			downstream.OnError,
			downstream.OnCompleted,
		)
		sub.Set(source.Subscribe(upstream))
		return sub
	})
}

// Filter forwards the upstream values for which pred holds, preserving
// order. A failing predicate follows Map's error path.
func Filter[T any](source *Observable[T], pred func(T) (bool, error)) *Observable[T] {
	return Create(func(downstream *Observer[T]) Disposable {
		sub := NewSerialDisposable()
		upstream := NewObserver(
			func(v T) {
				if sub.IsDisposed() {
					return
				}
				keep, err := pred(v)
				if err != nil {
					sub.Dispose()
					downstream.OnError(&OperatorError{Err: err})
					return
				}
				if keep {
					downstream.OnNext(v)
				}
			},
			downstream.OnError,
			downstream.OnCompleted,
		)
		sub.Set(source.Subscribe(upstream))
		return sub
	})
}
