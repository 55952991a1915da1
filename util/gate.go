package util

// A Gate limits concurrency. Every gate has a maximum number of goroutines
// to allow through at a time. Goroutines enter the gate by calling Enter(),
// and signal that they are done by calling Leave().
type Gate chan struct{}

// NewGate returns a Gate which accepts at most n entries at a time. If n is
// not positive the gate admits one goroutine at a time.
func NewGate(n int) Gate {
	if n < 1 {
		n = 1
	}
	return Gate(make(chan struct{}, n))
}

// Enter blocks the calling goroutine until there is room inside the gate.
// It is safe to call this from multiple goroutines.
func (g Gate) Enter() {
	g <- struct{}{}
}

// Leave marks a goroutine outside the critical section. Each call to Enter
// must be balanced with a call to Leave.
func (g Gate) Leave() {
	<-g
}

// Inside returns the number of goroutines currently inside the gate.
func (g Gate) Inside() int {
	return len(g)
}
