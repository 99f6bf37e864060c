package errs

import "fmt"

type HttpError struct {
	Code    int
	Message string
	Data    any
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("code %d: %s, data: %v", e.Code, e.Message, e.Data)
}

// NotFoundError carries the raw identifier so the station can show what it
// failed to match, e.g. "no ticket found for session cs_xxx".
type NotFoundError struct {
	Identifier string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no ticket found for %s", e.Identifier)
}

// AmbiguousMatchError means a suffix lookup hit more than one cached ticket.
// The operator must be prompted for a longer identifier; it is never resolved
// by falling through to a remote search.
type AmbiguousMatchError struct {
	Suffix string
	Count  int
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("suffix %q matches %d tickets", e.Suffix, e.Count)
}

type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

type UpdateFailedError struct {
	TicketNumber string
	Err          error
}

func (e *UpdateFailedError) Error() string {
	return fmt.Sprintf("entry update for %s could not be dispatched: %v", e.TicketNumber, e.Err)
}

func (e *UpdateFailedError) Unwrap() error {
	return e.Err
}
