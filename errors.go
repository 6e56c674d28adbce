package fetchcache

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidKey        = errors.New("fetchcache: invalid resource key")
	ErrStoreUnavailable  = errors.New("fetchcache: store unavailable")
	ErrOriginUnavailable = errors.New("fetchcache: origin unavailable")
)

// StoreError reports a failed store operation. It matches ErrStoreUnavailable
// and the underlying client error under errors.Is.
type StoreError struct {
	Op  string // get, setex, incr
	Key string // storage key
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("fetchcache: store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return causes(ErrStoreUnavailable, e.Err)
}

// OriginError reports a failed origin call, including cancellation and
// timeout. Nothing was cached and the counter was not touched.
type OriginError struct {
	Key string
	Err error
}

func (e *OriginError) Error() string {
	return fmt.Sprintf("fetchcache: origin %q: %v", e.Key, e.Err)
}

func (e *OriginError) Unwrap() []error {
	return causes(ErrOriginUnavailable, e.Err)
}

func causes(kind, err error) []error {
	errs := make([]error, 0, 2)
	errs = append(errs, kind)
	if err != nil {
		errs = append(errs, err)
	}
	return errs
}
