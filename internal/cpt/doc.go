// Package cpt builds and normalizes conditional probability tables.
//
// A Table holds the distribution of one discrete variable for every
// combination of its parents' values. With no parents it is a single row of
// probabilities. With k parents it behaves like a tree of depth k: dimension i
// is indexed by the value of parent i (in the order the parents were added)
// and every leaf is a row of probabilities over the variable's domain.
//
// Internally the leaves are stored contiguously in depth-first order, with the
// last parent varying fastest. This is also the order in which AssignRows
// consumes a flat list of caller-supplied rows, and the order of the nested
// JSON form produced by MarshalJSON.
//
// The shape of a Table is fixed when it is built and is validated once, at
// assignment time, against the declared parent domain sizes. Lookups after
// that are plain offset arithmetic.
package cpt
