package core

import (
	"context"
	"errors"
)

// Error taxonomy shared by every stage. Wrap with %w and test with errors.Is.
var (
	// ErrTransport: network failure, timeout or non-2xx status. Retryable.
	ErrTransport = errors.New("transport error")
	// ErrPayloadNotFound: an expected script block or selector is missing
	// from an otherwise successful page.
	ErrPayloadNotFound = errors.New("payload not found")
	// ErrPayloadMalformed: the lenient JSON literal or a structural
	// assumption about the page did not hold.
	ErrPayloadMalformed = errors.New("payload malformed")
	// ErrNoCandidates: zero usable images or examples for a word.
	ErrNoCandidates = errors.New("no candidates")
	// ErrModel: the embedding or keyword model failed to load or infer.
	ErrModel = errors.New("model error")
)

// Code is a short error class used as a log field.
type Code string

const (
	CodeUnknown          Code = "unknown"
	CodeTransport        Code = "transport"
	CodePayloadNotFound  Code = "payload_not_found"
	CodePayloadMalformed Code = "payload_malformed"
	CodeNoCandidates     Code = "no_candidates"
	CodeModel            Code = "model"
	CodeCancel           Code = "cancel"
)

// Classify maps an error to its Code. Cancellation and deadlines win over
// every other class.
func Classify(err error) Code {
	switch {
	case err == nil:
		return CodeUnknown
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancel
	case errors.Is(err, ErrModel):
		return CodeModel
	case errors.Is(err, ErrTransport):
		return CodeTransport
	case errors.Is(err, ErrPayloadNotFound):
		return CodePayloadNotFound
	case errors.Is(err, ErrPayloadMalformed):
		return CodePayloadMalformed
	case errors.Is(err, ErrNoCandidates):
		return CodeNoCandidates
	default:
		return CodeUnknown
	}
}

// Retryable reports whether err is worth retrying.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransport) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
