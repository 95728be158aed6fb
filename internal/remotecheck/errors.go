// File: backend/internal/remotecheck/errors.go
package remotecheck

import (
	"errors"
	"fmt"
)

// ErrorKind discriminates check failures for callers that need to report them
// differently. Every failure from this package is a *CheckError.
type ErrorKind string

const (
	KindTransport ErrorKind = "transport" // timeout, DNS, connection level failure
	KindProtocol  ErrorKind = "protocol"  // unexpected HTML/JSON, missing token or request_id
	KindTimeout   ErrorKind = "timeout"   // polling exhausted without a result
	KindParse     ErrorKind = "parse"     // malformed JSON in a non-empty response
)

// CheckError is the error type returned by Submit and Poll.
type CheckError struct {
	Kind    ErrorKind
	Op      string // "submit" or "poll"
	Message string
	Err     error
}

func (e *CheckError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("remotecheck %s: %s: %s", e.Op, e.Kind, msg)
}

func (e *CheckError) Unwrap() error { return e.Err }

// KindOf extracts the ErrorKind from an error chain, or "" if the error did
// not originate here.
func KindOf(err error) ErrorKind {
	var ce *CheckError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
