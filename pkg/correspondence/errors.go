package correspondence

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned when a mutation names a slice or a
// correspondence index that does not exist. The mutation is not applied.
var ErrIndexOutOfRange = errors.New("index out of range")

// IndexKind says which index was out of range.
type IndexKind string

const (
	KindSlice IndexKind = "slice"
	KindPoint IndexKind = "point"
)

// IndexError describes a rejected index. Limit is the exclusive upper bound
// that applied when the call was made.
type IndexError struct {
	Kind  IndexKind
	Slice int
	Index int
	Limit int
}

func (e *IndexError) Error() string {
	if e.Kind == KindSlice {
		return fmt.Sprintf("%s: slice %d not in [0, %d)", ErrIndexOutOfRange, e.Index, e.Limit)
	}
	if e.Slice < 0 {
		return fmt.Sprintf("%s: correspondence %d not in [0, %d)", ErrIndexOutOfRange, e.Index, e.Limit)
	}
	return fmt.Sprintf("%s: point %d not in [0, %d) on slice %d", ErrIndexOutOfRange, e.Index, e.Limit, e.Slice)
}

// Unwrap returns ErrIndexOutOfRange.
func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }

func sliceError(k, n int) error {
	return &IndexError{Kind: KindSlice, Slice: k, Index: k, Limit: n}
}

func pointError(k, i, n int) error {
	return &IndexError{Kind: KindPoint, Slice: k, Index: i, Limit: n}
}

func correspondenceError(i, n int) error {
	return &IndexError{Kind: KindPoint, Slice: -1, Index: i, Limit: n}
}
