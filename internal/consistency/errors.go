package consistency

import "errors"

var (
	// ErrUnknownClient is returned when an operation names a client id that is not in the snapshot.
	ErrUnknownClient = errors.New("unknown client")

	// ErrUnknownProject is returned when an operation names a project id that is not in the snapshot.
	ErrUnknownProject = errors.New("unknown project")
)
