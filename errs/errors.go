// Package errs defines the sentinel errors shared across sigstream packages.
//
// All errors are plain sentinels created with errors.New so callers can match
// them with errors.Is even when they arrive wrapped with positional context
// (byte offsets, signal names, marker values).
package errs

import "errors"

// Wire stream decode errors.
var (
	// ErrInvalidMagic indicates the stream does not start with a supported
	// magic token. Fatal before any record is read.
	ErrInvalidMagic = errors.New("invalid or unsupported magic token")

	// ErrUnexpectedEOF indicates the stream ended inside a field. The wrapping
	// error carries the byte offset where the short read occurred.
	ErrUnexpectedEOF = errors.New("unexpected end of stream")

	// ErrInvalidUTF8 indicates a name, unit, value-table description or string
	// sample is not valid UTF-8. Stream-fatal; no lossy fallback.
	ErrInvalidUTF8 = errors.New("invalid UTF-8 sequence")

	// ErrUnknownTypeMarker indicates a record carries a type marker outside
	// the supported set. The payload width is unknowable, so the record cannot
	// be skipped and the whole stream is abandoned.
	ErrUnknownTypeMarker = errors.New("unknown type marker")
)

// Wire encode errors.
var (
	ErrEncoderFinished     = errors.New("encoder already finished")
	ErrEncoderNotStarted   = errors.New("encoder not started, call Begin first")
	ErrSignalCountMismatch = errors.New("emitted signal count does not match declared count")
	ErrStringTooLong       = errors.New("string exceeds uint16 length prefix")
	ErrKindMismatch        = errors.New("signal kind does not match sample storage")
)

// Container file errors.
var (
	ErrEmptySignal        = errors.New("signal has no samples")
	ErrInvalidHeaderSize  = errors.New("container header truncated")
	ErrInvalidHeader      = errors.New("invalid container header")
	ErrInvalidFooter      = errors.New("invalid container footer")
	ErrInvalidIndexOffset = errors.New("container index offset out of range")
	ErrInvalidBlock       = errors.New("container block corrupt or truncated")
	ErrSignalNotFound     = errors.New("signal not found in container")
	ErrWriterClosed       = errors.New("container writer already closed")
)
