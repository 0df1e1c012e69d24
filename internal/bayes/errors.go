package bayes

import "errors"

var (
	// ErrUnknownNode is returned when a node name is not registered in the graph.
	ErrUnknownNode = errors.New("unknown node")
	// ErrUnknownValue is returned when a value label is not in a node's domain.
	ErrUnknownValue = errors.New("unknown value")
	// ErrDuplicateNode is returned when a node name is registered twice.
	ErrDuplicateNode = errors.New("duplicate node")
	// ErrInvalidDomain is returned for an empty domain or repeated labels.
	ErrInvalidDomain = errors.New("invalid domain")
	// ErrCycle is returned when the parent edges form a cycle.
	ErrCycle = errors.New("cycle in parent graph")
	// ErrForeignParent is returned when a parent belongs to another graph.
	ErrForeignParent = errors.New("parent belongs to another graph")
	// ErrNotSampled is returned for a marginal requested before any sampling.
	ErrNotSampled = errors.New("node has not been sampled")
	// ErrDegenerateEvidence is returned for a marginal when every draw of the
	// last sampling call had zero weight, so the estimate is undefined.
	ErrDegenerateEvidence = errors.New("degenerate evidence: total draw weight is zero")
	// ErrInvalidDrawCount is returned when fewer than one draw is requested.
	ErrInvalidDrawCount = errors.New("draw count must be positive")
)
