// Package iterx provides a small generic helper for composing the
// iter.Seq sequences used to walk the cache's sets without allocating
// an intermediate slice of lines.
package iterx

import (
	"iter"
)

// Concat concatenates multiple iterators into a single iterator sequence.
func Concat[T any](seqs ...iter.Seq[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, seq := range seqs {
			for val := range seq {
				if !yield(val) {
					return // Stop if the consumer stops
				}
			}
		}
	}
}
