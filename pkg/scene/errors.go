package scene

import "errors"

var (
	// ErrUnknownNode is returned when an operation names a node that is not
	// in the scene.
	ErrUnknownNode = errors.New("unknown node")
	// ErrUnknownEdge is returned when an operation names a missing edge.
	ErrUnknownEdge = errors.New("unknown edge")
	// ErrDuplicateNode is returned when a seed reuses a node id.
	ErrDuplicateNode = errors.New("duplicate node id")
	// ErrDuplicateEdge is returned when a seed reuses an edge id.
	ErrDuplicateEdge = errors.New("duplicate edge id")
)
