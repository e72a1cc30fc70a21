package abc

import "errors"

var (
	// ErrInvalidArchive reports an archive that could not be opened or failed validation.
	ErrInvalidArchive = errors.New("invalid archive file")
	// ErrInvalidSchema reports a typed schema that failed its validity check.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrSchemaMismatch reports a schema accessor used on an object of another schema.
	ErrSchemaMismatch = errors.New("schema does not match object header")
	// ErrSampleIndex reports a sample index outside [0, NumSamples).
	ErrSampleIndex = errors.New("sample index out of range")
	// ErrChildIndex reports a child index outside [0, NumChildren).
	ErrChildIndex = errors.New("child index out of range")
	// ErrTimeSamplingIndex reports an unknown time sampling index.
	ErrTimeSamplingIndex = errors.New("time sampling index out of range")
	// ErrChannelCount reports a transform operation with the wrong number of channels.
	ErrChannelCount = errors.New("wrong channel count for transform operation")
	// ErrFaceIndexOverrun reports face counts that consume more indices than exist.
	ErrFaceIndexOverrun = errors.New("face counts exceed face indices")
	// ErrFaceIndexUnderrun reports face indices left over after all face counts are consumed.
	ErrFaceIndexUnderrun = errors.New("face indices left after face counts")
)
