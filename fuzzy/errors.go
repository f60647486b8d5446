package fuzzy

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Structural errors reported while loading a model or assembling the
// rule forest. Assembly treats all of them as fatal.
var (
	ErrInvalidBounds     = errors.New("lower bound must be below upper bound")
	ErrUnknownVariable   = errors.New("unknown variable")
	ErrUnknownValue      = errors.New("unknown variable value")
	ErrUnknownDrive      = errors.New("unknown drive")
	ErrDanglingReference = errors.New("connection references a missing node")
	ErrNotArity          = errors.New("not node must have exactly one input")
	ErrOutputAsSource    = errors.New("output node cannot feed another node")
	ErrInputAsTarget     = errors.New("input node cannot receive a connection")
	ErrSelfConnection    = errors.New("node cannot connect to itself")
	ErrCycle             = errors.New("rule graph contains a cycle")
	ErrDuplicateGUID     = errors.New("duplicate guid")
	ErrOutputVariable    = errors.New("output node must target an output variable")
)

// AssemblyError locates a structural error inside a drive.
type AssemblyError struct {
	Drive string
	Node  uuid.UUID
	Err   error
}

func (e *AssemblyError) Error() string {
	if e.Node == uuid.Nil {
		return fmt.Sprintf("drive %q: %v", e.Drive, e.Err)
	}
	return fmt.Sprintf("drive %q node %s: %v", e.Drive, e.Node, e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}
