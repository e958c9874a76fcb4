package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Number is the set of quantities a package can be bounded on.
type Number interface {
	~int | ~float64
}

// Limit is an optional upper bound. The zero value is unbounded, which is
// distinct from Max(0).
type Limit[T Number] struct {
	v   T
	set bool
}

// Unlimited returns a bound that admits every total.
func Unlimited[T Number]() Limit[T] {
	return Limit[T]{}
}

// Max returns a bound admitting totals <= v.
func Max[T Number](v T) Limit[T] {
	return Limit[T]{v: v, set: true}
}

// LimitOf converts a nullable value (nil = unbounded).
func LimitOf[T Number](p *T) Limit[T] {
	if p == nil {
		return Unlimited[T]()
	}
	return Max(*p)
}

// Value returns the bound and whether one is set.
func (l Limit[T]) Value() (T, bool) {
	return l.v, l.set
}

func (l Limit[T]) IsSet() bool {
	return l.set
}

// Allows reports whether total stays within the bound.
func (l Limit[T]) Allows(total T) bool {
	return !l.set || total <= l.v
}

func (l Limit[T]) String() string {
	if !l.set {
		return "unlimited"
	}
	return fmt.Sprint(l.v)
}

// MarshalJSON encodes an unbounded limit as null.
func (l Limit[T]) MarshalJSON() ([]byte, error) {
	if !l.set {
		return []byte("null"), nil
	}
	return json.Marshal(l.v)
}

// UnmarshalJSON accepts null (unbounded) or a number.
func (l *Limit[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = Limit[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*l = Max(v)
	return nil
}
