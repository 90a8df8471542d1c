package client

import (
	"context"
	"errors"
	"net/http"
)

// ErrorKind classifies a failed weather lookup. It doubles as a stable metric label.
type ErrorKind string

const (
	ErrorKindNotFound     ErrorKind = "not_found"
	ErrorKindAPIError     ErrorKind = "api_error"
	ErrorKindNoResponse   ErrorKind = "no_response"
	ErrorKindRequestSetup ErrorKind = "request_setup_error"
)

// Message returns the user-visible text for k.
func (k ErrorKind) Message() string {
	switch k {
	case ErrorKindNotFound:
		return "City not found"
	case ErrorKindAPIError:
		return "API error"
	case ErrorKindNoResponse:
		return "No response from server"
	case ErrorKindRequestSetup:
		return "Request setup error"
	}
	return ""
}

// ClassifyError maps a lookup error to its ErrorKind.
// A received response decides first (404 vs anything else); then a missing response;
// everything else counts as a request that could not be set up.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusNotFound {
			return ErrorKindNotFound
		}
		return ErrorKindAPIError
	}

	if errors.Is(err, ErrMalformedResponse) {
		return ErrorKindAPIError
	}

	if errors.Is(err, ErrRequestSetup) {
		return ErrorKindRequestSetup
	}

	if errors.Is(err, ErrNoResponse) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorKindNoResponse
	}

	return ErrorKindRequestSetup
}
