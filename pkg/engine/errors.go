package engine

import "errors"

var (
	// ErrNilSource is returned when a builder is created without a source.
	ErrNilSource = errors.New("engine: nil data source")

	// ErrInvalidResolution is returned by Result for an unsupported resolution.
	ErrInvalidResolution = errors.New("engine: invalid resolution")

	// ErrInvalidMergeType is returned by Result for an unsupported merge type.
	ErrInvalidMergeType = errors.New("engine: invalid merge type")
)
