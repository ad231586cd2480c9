package executor

import (
	"context"
	"errors"
	"fmt"
)

// RequestFailed is returned for every unsuccessful submission: transport
// faults, non-2xx statuses and undecodable bodies. Client and server errors
// are not told apart.
type RequestFailed struct {
	Status int   // HTTP status, 0 when no response was received
	Cause  error // underlying error, may be nil for plain status failures
}

func (e *RequestFailed) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return "request failed: transport error"
}

func (e *RequestFailed) Unwrap() error {
	return e.Cause
}

// IsRequestFailed reports whether err is (or wraps) a RequestFailed
func IsRequestFailed(err error) bool {
	var rf *RequestFailed
	return errors.As(err, &rf)
}

// StatusOf returns the HTTP status carried by err, or 0
func StatusOf(err error) int {
	var rf *RequestFailed
	if errors.As(err, &rf) {
		return rf.Status
	}
	return 0
}

type submissionKey struct{}

// WithSubmissionID attaches a submission id, sent as X-Request-ID
func WithSubmissionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, submissionKey{}, id)
}

// SubmissionID returns the submission id attached to ctx, if any
func SubmissionID(ctx context.Context) string {
	id, _ := ctx.Value(submissionKey{}).(string)
	return id
}
