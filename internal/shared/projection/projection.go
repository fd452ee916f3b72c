// Package projection carries read models together with persistence metadata.
package projection

import "time"

// Metadata captures persistence timestamps shared by projections.
type Metadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Projection represents an aggregate view plus persistence metadata.
type Projection[T any] struct {
	Entity   T
	Metadata Metadata
}

// New wraps entity with its timestamps. A zero updatedAt falls back to createdAt.
func New[T any](entity T, createdAt, updatedAt time.Time) *Projection[T] {
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	return &Projection[T]{Entity: entity, Metadata: Metadata{CreatedAt: createdAt, UpdatedAt: updatedAt}}
}

// Page is one offset-bounded slice of a listing plus the count of all matches.
type Page[T any] struct {
	Items  []T
	Total  int64
	Offset int
	Limit  int
}

// HasMore reports whether matches exist beyond this page.
func (p Page[T]) HasMore() bool {
	return int64(p.Offset+len(p.Items)) < p.Total
}
