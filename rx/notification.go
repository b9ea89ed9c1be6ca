package rx

type NotificationKind string

const (
	OnNext      NotificationKind = "next"
	OnError     NotificationKind = "error"
	OnCompleted NotificationKind = "completed"
)

// Notification is a single event in an observable sequence. A sequence is
// zero or more OnNext notifications followed by at most one terminal
// notification (OnError or OnCompleted).
type Notification[T any] struct {
	kind  NotificationKind
	value T
	err   error
}

func Next[T any](value T) Notification[T] {
	return Notification[T]{kind: OnNext, value: value}
}

func Error[T any](err error) Notification[T] {
	return Notification[T]{kind: OnError, err: err}
}

func Complete[T any]() Notification[T] {
	return Notification[T]{kind: OnCompleted}
}

func (n Notification[T]) Kind() NotificationKind {
	return n.kind
}

func (n Notification[T]) Value() T {
	return n.value
}

func (n Notification[T]) Err() error {
	return n.err
}

// IsTerminal reports whether the notification ends the sequence.
func (n Notification[T]) IsTerminal() bool {
	return n.kind == OnError || n.kind == OnCompleted
}
