package seismic

import (
	"errors"
	"fmt"

	"github.com/alexiusacademia/goeq/internal/loadcase"
)

var (
	// ErrDegenerateMode means the mass-weighted displacement sums are zero,
	// so no period or modal force distribution exists.
	ErrDegenerateMode = errors.New("degenerate mode: zero mass-weighted displacement")

	// ErrEmptyIntersection means displacement and mass results share no node.
	ErrEmptyIntersection = errors.New("displacement and mass results share no node")

	// ErrConfigurationMismatch means parallel inputs disagree in length.
	ErrConfigurationMismatch = errors.New("configuration mismatch")
)

// GroupError identifies the group and axis a derivation failed for.
type GroupError struct {
	Axis  loadcase.Axis
	Group string
	Err   error
}

func (e *GroupError) Error() string {
	return fmt.Sprintf("axis %s, group %q: %v", e.Axis, e.Group, e.Err)
}

func (e *GroupError) Unwrap() error {
	return e.Err
}

func groupErr(axis loadcase.Axis, group string, err error) error {
	if err == nil {
		return nil
	}
	return &GroupError{Axis: axis, Group: group, Err: err}
}
