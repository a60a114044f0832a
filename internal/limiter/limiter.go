// Package limiter bounds how many heavy operations run at once. Rasterizing
// a whole document is CPU and memory hungry; without a cap a burst of uploads
// can stack an unbounded number of MuPDF passes.
package limiter

// Inflight is a fixed-size slot pool. A zero or negative max means no limit.
type Inflight struct {
	sem chan struct{}
}

func New(max int) *Inflight {
	if max <= 0 {
		return &Inflight{}
	}
	return &Inflight{sem: make(chan struct{}, max)}
}

// Acquire blocks until a slot is free and returns its release function.
func (l *Inflight) Acquire() func() {
	if l == nil || l.sem == nil {
		return func() {}
	}
	l.sem <- struct{}{}
	return func() { <-l.sem }
}

// TryAcquire reserves a slot without blocking. Returns a release function and
// true if a slot was free.
func (l *Inflight) TryAcquire() (func(), bool) {
	if l == nil || l.sem == nil {
		return func() {}, true
	}
	select {
	case l.sem <- struct{}{}:
		return func() { <-l.sem }, true
	default:
		return func() {}, false
	}
}
