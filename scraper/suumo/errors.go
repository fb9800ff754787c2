package suumo

import (
	"errors"
	"fmt"
)

// TransientFetchError marks a failure worth retrying: server errors,
// throttling, timeouts, transport drops.
type TransientFetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *TransientFetchError) Error() string {
	msg := "transient fetch failure"
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	msg += " for " + e.URL
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransientFetchError) Unwrap() error { return e.Err }

// PermanentFetchError marks a failure retrying cannot fix: missing pages,
// malformed URLs, markup we no longer recognise.
type PermanentFetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *PermanentFetchError) Error() string {
	msg := "permanent fetch failure"
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	msg += " for " + e.URL
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PermanentFetchError) Unwrap() error { return e.Err }

// IsTransient reports whether err is worth another attempt.
func IsTransient(err error) bool {
	var t *TransientFetchError
	return errors.As(err, &t)
}

// IsPermanent reports whether err means the resource will never succeed.
func IsPermanent(err error) bool {
	var p *PermanentFetchError
	return errors.As(err, &p)
}
