// Package errs defines the failure surface of the brain API. Every failed
// request is answered with a Response. Handlers return a Trusted error when
// they know the status to report, otherwise the error middleware maps the
// core errors: a halted system is 423, bad input is 400, a missing presence
// is 409 and a full queue or ledger is 503.
package errs

import "errors"

// Response is the body sent for a failed request. Fields names the request
// fields that failed validation, or the index of the block that failed
// ledger validation.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted carries an error whose message is safe to return to the caller
// along with the status to respond with.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. Handlers use it
// for expected failures such as a malformed block sequence.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the message of the wrapped
// error.
func (te *Trusted) Error() string {
	return te.Err.Error()
}

// Unwrap gives errors.Is access to the wrapped error.
func (te *Trusted) Unwrap() error {
	return te.Err
}

// IsTrusted checks if a Trusted error exists in the chain.
func IsTrusted(err error) bool {
	var te *Trusted
	return errors.As(err, &te)
}

// GetTrusted returns the Trusted error from the chain or nil.
func GetTrusted(err error) *Trusted {
	var te *Trusted
	if !errors.As(err, &te) {
		return nil
	}
	return te
}
