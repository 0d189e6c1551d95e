package mock

import (
	"io"

	"github.com/fwojciec/omnirag"
)

// Interface compliance check.
var _ omnirag.Stream = (*Stream)(nil)

// Stream is a test double for omnirag.Stream.
// NextFn panics when nil to catch missing setup. CloseFn is nil-safe
// (no-op) because callers commonly defer stream.Close().
type Stream struct {
	NextFn  func() (omnirag.Fragment, error)
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (omnirag.Fragment, error) {
	return s.NextFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// Fragments returns a Stream that yields frags in order, then err. A nil
// err ends the stream with io.EOF.
func Fragments(err error, frags ...omnirag.Fragment) *Stream {
	if err == nil {
		err = io.EOF
	}
	i := 0
	return &Stream{
		NextFn: func() (omnirag.Fragment, error) {
			if i >= len(frags) {
				return omnirag.Fragment{}, err
			}
			f := frags[i]
			i++
			return f, nil
		},
	}
}
