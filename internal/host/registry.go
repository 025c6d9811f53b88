package host

import (
	"errors"

	"go-markdown-preview/internal/contracts"
)

// ErrNotSubscribed is returned when a registration is released twice, or
// after the host dropped it.
var ErrNotSubscribed = errors.New("not subscribed")

// registry is an ordered set of callbacks. It is only touched from the loop.
type registry[T any] struct {
	next    int
	entries []entry[T]
}

type entry[T any] struct {
	id int
	fn T
}

func (r *registry[T]) add(fn T) contracts.Subscription {
	r.next++
	r.entries = append(r.entries, entry[T]{id: r.next, fn: fn})
	return &registration[T]{r: r, id: r.next}
}

func (r *registry[T]) remove(id int) bool {
	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// snapshot copies the callbacks so they may unsubscribe while being called.
func (r *registry[T]) snapshot() []T {
	fns := make([]T, len(r.entries))
	for i, e := range r.entries {
		fns[i] = e.fn
	}
	return fns
}

func (r *registry[T]) clear() {
	r.entries = nil
}

func (r *registry[T]) size() int {
	return len(r.entries)
}

type registration[T any] struct {
	r  *registry[T]
	id int
}

func (s *registration[T]) Unsubscribe() error {
	if !s.r.remove(s.id) {
		return ErrNotSubscribed
	}
	return nil
}
