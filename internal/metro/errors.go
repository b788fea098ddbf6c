package metro

import (
	"errors"
	"fmt"
)

// ErrInvalidOptions is returned when build tunables are out of range.
var ErrInvalidOptions = errors.New("invalid build options")

// DataError reports a station field that is present but not a usable number.
type DataError struct {
	StationID string
	Field     string
	Value     string
	Err       error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("station %q: invalid %s %q: %v", e.StationID, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("station %q: invalid %s %q", e.StationID, e.Field, e.Value)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// UnknownStationError reports an identifier that is not part of the dataset.
type UnknownStationError struct {
	ID string
}

func (e *UnknownStationError) Error() string {
	return fmt.Sprintf("unknown station %q", e.ID)
}
