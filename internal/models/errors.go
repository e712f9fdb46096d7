package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the render pipeline.
var (
	// ErrNotFound indicates an unknown job id or missing file.
	ErrNotFound = errors.New("not found")

	// ErrInvalidResolution indicates a non-positive output resolution.
	ErrInvalidResolution = errors.New("resolution must be positive")

	// ErrInvalidFrameRate indicates a non-positive frame rate.
	ErrInvalidFrameRate = errors.New("frame rate must be positive")

	// ErrInvalidQuality indicates an unknown quality tier.
	ErrInvalidQuality = errors.New("invalid quality: must be low, medium, high or lossless")
)

// InvalidCompositionError reports a structural violation that would make
// timeline resolution ill-defined. Non-fatal issues are reported as
// validation warnings instead.
type InvalidCompositionError struct {
	TrackID string
	Reason  string
}

// Error implements the error interface.
func (e *InvalidCompositionError) Error() string {
	if e.TrackID == "" {
		return fmt.Sprintf("invalid composition: %s", e.Reason)
	}
	return fmt.Sprintf("invalid composition: track %s: %s", e.TrackID, e.Reason)
}

// UnsupportedEffectError reports an effect type missing from the catalog.
// It is fatal to a render job.
type UnsupportedEffectError struct {
	Type string
}

func (e *UnsupportedEffectError) Error() string {
	return fmt.Sprintf("unsupported effect type: %q", e.Type)
}

// UnsupportedTransitionError reports a transition type missing from the
// catalog. It is fatal to a render job.
type UnsupportedTransitionError struct {
	Type string
}

func (e *UnsupportedTransitionError) Error() string {
	return fmt.Sprintf("unsupported transition type: %q", e.Type)
}

// MediaError wraps a decode failure from the media collaborator. It is fatal
// to the job and never retried.
type MediaError struct {
	AssetID string
	Op      string
	Err     error
}

func (e *MediaError) Error() string {
	return fmt.Sprintf("media %s failed for asset %s: %v", e.Op, e.AssetID, e.Err)
}

// Unwrap exposes the underlying decode error.
func (e *MediaError) Unwrap() error {
	return e.Err
}

// EncodeError wraps a failure from the encoding sink.
type EncodeError struct {
	Op  string
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s failed: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying encoder error.
func (e *EncodeError) Unwrap() error {
	return e.Err
}
