package geom

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidGeometry is matched by every construction failure.
var ErrInvalidGeometry = errors.New("invalid geometry")

// GeometryError describes why a geometry could not be built.
type GeometryError struct {
	Type   Type
	Reason string
}

func (e *GeometryError) Error() string {
	if e.Type == "" {
		return "invalid geometry: " + e.Reason
	}
	return "invalid " + strings.ToLower(string(e.Type)) + ": " + e.Reason
}

func (e *GeometryError) Is(target error) bool { return target == ErrInvalidGeometry }

func invalid(t Type, format string, args ...any) error {
	return &GeometryError{Type: t, Reason: fmt.Sprintf(format, args...)}
}
