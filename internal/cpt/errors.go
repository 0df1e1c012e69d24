package cpt

import "errors"

var (
	// ErrShapeMismatch is returned when rows do not match the table's leaf
	// count or domain width, or when a nested table is ragged.
	ErrShapeMismatch = errors.New("cpt: shape mismatch")

	// ErrEmptyDomain is returned when a table is requested for a variable
	// with no values, or a parent dimension of size zero.
	ErrEmptyDomain = errors.New("cpt: empty domain")

	// ErrInvalidProbability is returned for negative, NaN or infinite entries.
	ErrInvalidProbability = errors.New("cpt: invalid probability")
)
