package rx

import "sync"

// Disposable is a one-shot cancellation token for a subscription or any
// other resource a subscription acquired. Dispose is idempotent: every call
// after the first is a no-op.
type Disposable interface {
	Dispose()
}

type nopDisposable struct{}

func (nopDisposable) Dispose() {}

// Nop is a Disposable with no effect.
var Nop Disposable = nopDisposable{}

type funcDisposable struct {
	once sync.Once
	f    func()
}

// NewDisposable wraps f in a Disposable that invokes it at most once.
func NewDisposable(f func()) Disposable {
	return &funcDisposable{f: f}
}

func (d *funcDisposable) Dispose() {
	d.once.Do(func() {
		if d.f != nil {
			d.f()
		}
	})
}

// CompositeDisposable owns a growing set of child disposables and disposes
// them as one unit. Once the composite is disposed, adding a child disposes
// that child immediately instead of retaining it, so nothing added after
// group teardown can leak.
type CompositeDisposable struct {
	mu       sync.Mutex
	disposed bool
	children []Disposable
}

func NewCompositeDisposable(children ...Disposable) *CompositeDisposable {
	return &CompositeDisposable{children: children}
}

func (c *CompositeDisposable) Add(d Disposable) {
	if d == nil {
		return
	}
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		d.Dispose()
		return
	}
	c.children = append(c.children, d)
	c.mu.Unlock()
}

func (c *CompositeDisposable) IsDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

func (c *CompositeDisposable) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	children := c.children
	c.children = nil
	c.mu.Unlock()

	for _, d := range children {
		d.Dispose()
	}
}

// SerialDisposable holds at most one active disposable. Assigning a new one
// disposes the previous one first; disposing the serial disposes whatever is
// current and every disposable assigned afterwards.
type SerialDisposable struct {
	mu       sync.Mutex
	disposed bool
	current  Disposable
}

func NewSerialDisposable() *SerialDisposable {
	return &SerialDisposable{}
}

func (s *SerialDisposable) Set(d Disposable) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		if d != nil {
			d.Dispose()
		}
		return
	}
	prev := s.current
	s.current = d
	s.mu.Unlock()

	if prev != nil {
		prev.Dispose()
	}
}

func (s *SerialDisposable) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

func (s *SerialDisposable) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	current := s.current
	s.current = nil
	s.mu.Unlock()

	if current != nil {
		current.Dispose()
	}
}
