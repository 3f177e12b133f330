package pipeline

import (
	"strings"

	"github.com/pkg/errors"
)

// Operation names a per-frame transform.
type Operation string

const (
	// OpNormal copies the input frame unchanged.
	OpNormal Operation = "normal"
	// OpGray writes the single-channel luma.
	OpGray Operation = "gray"
	// OpBlur writes a Gaussian-blurred copy.
	OpBlur Operation = "blur"
	// OpEdges writes a four-channel Canny edge map.
	OpEdges Operation = "edges"
)

// Operations lists the transforms Dispatch accepts.
var Operations = []Operation{OpNormal, OpGray, OpBlur, OpEdges}

// ErrUnknownOperation is returned by ParseOperation for unsupported names.
var ErrUnknownOperation = errors.New("pipeline: unknown operation")

// ParseOperation resolves an operation name, ignoring case and surrounding space.
func ParseOperation(name string) (Operation, error) {
	op := Operation(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Operations {
		if op == known {
			return op, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownOperation, "%q", name)
}

// String returns the operation name.
func (o Operation) String() string {
	return string(o)
}
