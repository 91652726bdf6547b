package models

import (
	"iter"
)

// ResultContainer streams the results of a search.
// Ranging over Values more than once re-runs the underlying producer.
type ResultContainer[T any] struct {
	values iter.Seq2[T, error]
}

// NewResultContainer wraps a lazy producer of search results.
func NewResultContainer[T any](values iter.Seq2[T, error]) *ResultContainer[T] {
	return &ResultContainer[T]{values: values}
}

// ResultContainerOf returns a container over already materialised values.
func ResultContainerOf[T any](values ...T) *ResultContainer[T] {
	return NewResultContainer(func(yield func(T, error) bool) {
		for _, v := range values {
			if !yield(v, nil) {
				return
			}
		}
	})
}

// Values returns the result sequence. A nil container yields nothing.
func (c *ResultContainer[T]) Values() iter.Seq2[T, error] {
	if c == nil || c.values == nil {
		return func(func(T, error) bool) {}
	}
	return c.values
}

// Collect drains the container into a slice, stopping at the first error.
func (c *ResultContainer[T]) Collect() ([]T, error) {
	var out []T
	for v, err := range c.Values() {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}
