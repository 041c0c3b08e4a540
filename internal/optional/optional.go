/*
Copyright 2026 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package optional gives the declarative attribute schema (design
// component E) a single generic representation of "absent means
// unspecified, not zero" instead of hand-rolling a *T or (T, bool) pair
// for every field of every domain type and expression variant.
package optional

import "reflect"

// Value holds a field that is either present with a value or entirely
// absent from the wire. The zero Value[T] is absent.
type Value[T any] struct {
	v   T
	set bool
}

// Of returns a present Value wrapping v.
func Of[T any](v T) Value[T] {
	return Value[T]{v: v, set: true}
}

// Get returns the wrapped value and whether it is present.
func (o Value[T]) Get() (T, bool) {
	return o.v, o.set
}

// MustGet returns the wrapped value, panicking if absent. Reserved for
// code paths that have already checked Present.
func (o Value[T]) MustGet() T {
	if !o.set {
		panic("optional: MustGet called on an absent value")
	}
	return o.v
}

// Present reports whether a value was set.
func (o Value[T]) Present() bool {
	return o.set
}

// Set stores v and marks the field present.
func (o *Value[T]) Set(v T) {
	o.v = v
	o.set = true
}

// Clear marks the field absent again.
func (o *Value[T]) Clear() {
	var zero T
	o.v = zero
	o.set = false
}

// Equal reports whether o and other carry the same presence state and
// value. go-cmp recognizes this method and calls it instead of recursing
// into Value's unexported fields, so domain types embedding Value[T] as a
// struct field compare cleanly under cmp.Diff without AllowUnexported.
func (o Value[T]) Equal(other Value[T]) bool {
	if o.set != other.set {
		return false
	}
	if !o.set {
		return true
	}
	return reflect.DeepEqual(o.v, other.v)
}
