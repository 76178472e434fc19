package draw

import (
	"errors"

	"fieldmap/internal/geom"
)

var errNoPersister = errors.New("no persister configured")

// Message turns an error from the machine into text for the operator.
// Unknown errors are shown as is.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIncompleteShape):
		return "Not enough points yet. Polygons need 3 taps, circles a center."
	case errors.Is(err, ErrSaveInFlight):
		return "Still saving, hold on."
	case errors.Is(err, ErrPersistence):
		return "Save failed, try again. Your drawing was kept."
	case errors.Is(err, geom.ErrInvalidGeometry):
		return "Invalid location data. Check the points and try again."
	case errors.Is(err, ErrInvalidTransition):
		return "That action is not available right now."
	}
	return err.Error()
}
