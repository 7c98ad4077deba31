package query

import "fmt"

// Phase is the progress of a query activation.
type Phase int

const (
	// Pending is the phase between activation and settlement. It is the zero value.
	Pending Phase = iota
	// Resolved means the collaborator returned a payload.
	Resolved
	// Failed means the collaborator returned an error.
	Failed
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Terminal reports whether p is Resolved or Failed.
func (p Phase) Terminal() bool {
	return p == Resolved || p == Failed
}

// Lifecycle is the three-state variant Pending | Resolved{Data} | Failed{Err}.
// Data is only meaningful when Phase is Resolved, Err only when Phase is Failed.
type Lifecycle[T any] struct {
	Phase Phase
	Data  T
	Err   error
}

// PendingOf returns the Pending lifecycle.
func PendingOf[T any]() Lifecycle[T] {
	return Lifecycle[T]{Phase: Pending}
}

// ResolvedWith returns Resolved{data}.
func ResolvedWith[T any](data T) Lifecycle[T] {
	return Lifecycle[T]{Phase: Resolved, Data: data}
}

// FailedWith returns Failed{err}.
func FailedWith[T any](err error) Lifecycle[T] {
	return Lifecycle[T]{Phase: Failed, Err: err}
}

// Fold maps l onto a value with one function per phase.
// All three cases are required; a nil case panics so a missing branch is
// caught the first time that phase is rendered.
func Fold[T, V any](l Lifecycle[T], pending func() V, resolved func(T) V, failed func(error) V) V {
	if pending == nil || resolved == nil || failed == nil {
		panic("query: Fold requires a function for every phase")
	}
	switch l.Phase {
	case Pending:
		return pending()
	case Resolved:
		return resolved(l.Data)
	case Failed:
		return failed(l.Err)
	default:
		panic(fmt.Sprintf("query: unknown %s", l.Phase))
	}
}
