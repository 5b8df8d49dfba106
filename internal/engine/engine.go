// Package engine is the boundary to the external finite element
// application. The pipeline only talks to it through Model.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alexiusacademia/goeq/internal/loadcase"
	"github.com/alexiusacademia/goeq/internal/seismic"
)

// NodalForce is one point load assignment.
type NodalForce struct {
	Joint       string
	LoadPattern string
	Value       [loadcase.DOFCount]float64 // F1 F2 F3 M1 M2 M3
	Replace     bool
	CoordSystem string
}

// Model is an open engine session on one model file.
type Model interface {
	// Groups lists the group names defined in the model.
	Groups(ctx context.Context) ([]string, error)
	// LoadCases lists the load case names defined in the model.
	LoadCases(ctx context.Context) ([]string, error)
	// LoadPatterns lists the load pattern names defined in the model.
	// Joint loads can only be assigned to one of these.
	LoadPatterns(ctx context.Context) ([]string, error)
	// GroupJoints lists the joint objects assigned to a group.
	GroupJoints(ctx context.Context, group string) ([]string, error)

	SetUnits(ctx context.Context, units loadcase.Units) error
	Locked(ctx context.Context) (bool, error)
	SetLocked(ctx context.Context, locked bool) error
	CoordSystem(ctx context.Context) (string, error)

	// DefineUnitCase creates or overwrites a linear static case loaded by a
	// uniform acceleration.
	DefineUnitCase(ctx context.Context, uc loadcase.UnitAcceleration) error
	// DefineSeismicPattern adds a load pattern and its same-named linear
	// static case.
	DefineSeismicPattern(ctx context.Context, p loadcase.SeismicPattern) error
	// RunAnalysis runs exactly the named cases.
	RunAnalysis(ctx context.Context, cases []string) error

	// Displacements returns the joint displacements of a group's elements
	// for one load case, component on the given axis.
	Displacements(ctx context.Context, group, loadCase string, axis loadcase.Axis) (seismic.NodeResult, error)
	// Masses returns the assembled joint masses of a group's elements,
	// component on the given axis.
	Masses(ctx context.Context, group string, axis loadcase.Axis) (seismic.NodeResult, error)

	// DeleteNodalForces removes every point load of the pattern from the
	// joints of a group.
	DeleteNodalForces(ctx context.Context, group, pattern string) error
	// ApplyNodalForce assigns one point load.
	ApplyNodalForce(ctx context.Context, f NodalForce) error

	Save(ctx context.Context) error
	Close() error
}

// Error is a failure reported by the external engine.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("engine %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap tags err with the engine operation that produced it. Errors already
// wrapped are returned unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var ee *Error
	if errors.As(err, &ee) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// AllGroup is the group every model carries that holds all objects.
const AllGroup = "ALL"

var (
	ErrUnknownGroup   = errors.New("unknown group")
	ErrUnknownCase    = errors.New("unknown load case")
	ErrUnknownPattern = errors.New("unknown load pattern")
	ErrLocked         = errors.New("model is locked")
	ErrClosed         = errors.New("session closed")

	// ErrUnitsMismatch means the model's results are in other units than
	// the run asks for.
	ErrUnitsMismatch = errors.New("units mismatch")
)

// Open starts a session on the model file. Workbooks of exported engine
// tables (.xlsx) are the supported format.
func Open(ctx context.Context, path string) (Model, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return OpenWorkbook(ctx, path)
	default:
		return nil, Wrap("open", fmt.Errorf("unsupported model file %q", path))
	}
}
