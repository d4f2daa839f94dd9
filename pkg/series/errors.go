package series

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingName is returned by Build when no name was configured.
	ErrMissingName = errors.New("missing name")

	// ErrMissingUnit is returned by Build when no unit was configured.
	ErrMissingUnit = errors.New("missing unit")

	// ErrMissingData is returned by Build when the generator produced no
	// data map at all. An empty map is valid data.
	ErrMissingData = errors.New("missing data")
)

// BuildError is the single failure kind of Builder.Build. It wraps either a
// validation sentinel or the extraction error that stopped the build.
type BuildError struct {
	// Source is the configured source name, when it could be resolved.
	Source string

	// Err is the underlying cause.
	Err error
}

// NewBuildError wraps err. An err that already is a *BuildError is returned
// unchanged.
func NewBuildError(source string, err error) *BuildError {
	var be *BuildError
	if errors.As(err, &be) {
		return be
	}
	return &BuildError{Source: source, Err: err}
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("build data source %q: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("build data source: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// Is matches any other *BuildError, so errors.Is(err, &BuildError{}) tests
// for the kind.
func (e *BuildError) Is(target error) bool {
	_, ok := target.(*BuildError)
	return ok
}
