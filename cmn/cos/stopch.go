// Package cos ("common os"-ish grab bag, named after the teacher's own
// cmn/cos package) holds small, widely shared helpers that don't deserve
// their own package.
package cos

import "sync"

// StopCh is a close-once shutdown signal, the same idiom the teacher uses
// to tell a background jogger/collector goroutine to stop (see the
// transport collector and resilver jogger in the retrieval pack).
type StopCh struct {
	ch   chan struct{}
	once sync.Once
}

// NewStopCh returns a ready-to-use StopCh.
func NewStopCh() *StopCh {
	return &StopCh{ch: make(chan struct{})}
}

// Close signals shutdown. Safe to call multiple times and concurrently.
func (s *StopCh) Close() {
	s.once.Do(func() { close(s.ch) })
}

// Listen returns the channel that closes when Close is called.
func (s *StopCh) Listen() <-chan struct{} {
	return s.ch
}

// IsStopped reports whether Close has been called, without blocking.
func (s *StopCh) IsStopped() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}
