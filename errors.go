package sketcheval

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCollaborator is returned when an Experiment runs without a
	// required injected capability.
	ErrMissingCollaborator = errors.New("missing collaborator")
)

// ErrLengthMismatch indicates that two label vectors passed to an
// efficiency computation do not describe the same number of points.
type ErrLengthMismatch struct {
	ClusterLen   int
	ReferenceLen int
}

func (e *ErrLengthMismatch) Error() string {
	return fmt.Sprintf("label vector length mismatch: %d cluster labels vs %d reference labels", e.ClusterLen, e.ReferenceLen)
}

// ErrEmptyReferenceGroup indicates a reference group with zero total
// membership in the contingency table. This cannot happen when both label
// vectors come from the same evaluation call; it guards corrupted input
// rather than silently producing NaN.
type ErrEmptyReferenceGroup struct {
	Group string
}

func (e *ErrEmptyReferenceGroup) Error() string {
	return fmt.Sprintf("reference group %q has zero total membership", e.Group)
}
