package weberr

import (
	"net/http"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type RequestError struct {
	Err error
}

func (r *RequestError) Error() string { return r.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

func NewError(err error, msg string, status int, opts ...Opt) error {
	e := &RequestError{Err: err}
	opts = append(opts, WithResponse(
		&ErrorResponse{Error: msg},
		status,
	))

	return Wrap(e, opts...)
}

func NotFound(err error, opts ...Opt) error {
	return NewError(
		err,
		"the resource could not be found",
		http.StatusNotFound,
		opts...,
	)
}

func NotAuthorized(err error, opts ...Opt) error {
	return NewError(
		err,
		"not authorized to access resource",
		http.StatusUnauthorized,
		opts...,
	)
}

func InternalError(err error, opts ...Opt) error {
	return NewError(
		err,
		"the server encountered a problem and could not process your request",
		http.StatusInternalServerError,
		opts...,
	)
}

func BadRequest(err error, opts ...Opt) error {
	return NewError(
		err,
		"bad request",
		http.StatusBadRequest,
		opts...,
	)
}

// InvalidField reports which request field was rejected and why.
func InvalidField(err error, field string, opts ...Opt) error {
	e := &RequestError{Err: err}
	opts = append(opts, WithResponse(
		&ErrorResponse{Error: err.Error(), Field: field},
		http.StatusBadRequest,
	))
	return Wrap(e, opts...)
}

// Conflict carries a custom body, e.g. the step the client must complete first.
func Conflict(err error, body interface{}, opts ...Opt) error {
	e := &RequestError{Err: err}
	opts = append(opts, WithResponse(body, http.StatusConflict))
	return Wrap(e, opts...)
}

func TooManyRequests(err error, opts ...Opt) error {
	return NewError(
		err,
		"too many requests, slow down",
		http.StatusTooManyRequests,
		opts...,
	)
}

// Unavailable marks failures of an upstream collaborator the client may retry.
func Unavailable(err error, opts ...Opt) error {
	return NewError(
		err,
		"the payment provider could not be reached, please try again",
		http.StatusBadGateway,
		opts...,
	)
}
