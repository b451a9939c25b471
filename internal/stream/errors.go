package stream

import "github.com/pkg/errors"

var (
	// ErrAlreadyStreaming is returned when a start request targets a stream
	// key that already owns a live process.
	ErrAlreadyStreaming = errors.New("a stream is already running for this channel")

	// ErrStreamNotFound is returned when a stop targets a key with no live
	// session.
	ErrStreamNotFound = errors.New("no active stream for this key")

	// ErrFileNotFound is returned when the requested source file does not
	// exist (or is empty) under the media root.
	ErrFileNotFound = errors.New("source file not found")

	// ErrFileInUse is returned when a delete targets a file backing a live
	// session.
	ErrFileInUse = errors.New("file is in use by an active stream")

	// ErrInvalidDestination is returned when the destination URL for a start
	// request is empty.
	ErrInvalidDestination = errors.New("destination URL is required")
)
