package pipeline

import "errors"

// None of these end the session; Controller.Reset always returns to the
// dashboard.
var (
	// ErrDeviceAccessDenied means the camera could not be opened. Uploading
	// a file still works.
	ErrDeviceAccessDenied = errors.New("camera access denied")
	// ErrDecodeFailure means a captured or uploaded raster could not be
	// decoded.
	ErrDecodeFailure = errors.New("image could not be decoded")
	// ErrPersistence wraps store failures. Nothing is retried.
	ErrPersistence = errors.New("document store failure")
	// ErrExtraction wraps text extraction failures. The page is unchanged
	// and the call may be retried.
	ErrExtraction = errors.New("text extraction failed")
	// ErrUnsupportedShareTarget is returned by a ShareSink that cannot take
	// an artifact.
	ErrUnsupportedShareTarget = errors.New("share target does not accept this file")

	ErrInvalidTransition = errors.New("invalid stage transition")
	ErrNoDocument        = errors.New("no document is open")
	ErrNoSurface         = errors.New("markup surface is not initialized")
	ErrWrongStage        = errors.New("operation not available in this stage")
)

var (
	// ErrNotFound is returned by a Store for an unknown document id.
	ErrNotFound = errors.New("document not found")
	// ErrCameraInactive is returned when capturing without an open stream.
	ErrCameraInactive = errors.New("camera is not running")
)
