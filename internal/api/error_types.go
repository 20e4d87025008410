package api

import (
	stderrs "errors"

	"github.com/toolmux/toolmux/internal/errors"
)

// ErrorType represents the classification of errors returned via HTTP headers.
type ErrorType string

// HeaderErrorType is the HTTP header key which should be used to convey API error types.
const HeaderErrorType = "Toolmux-Error-Type"

const (
	// RoutingFailure indicates the request named a server or tool this daemon does not expose.
	RoutingFailure ErrorType = "routing-failure"

	// UpstreamFailure indicates a downstream MCP server failed to serve the request.
	UpstreamFailure ErrorType = "upstream-failure"

	// ValidationFailure indicates the client request was malformed.
	ValidationFailure ErrorType = "validation-failure"
)

// ClassifyError maps sentinel errors onto an ErrorType.
// The second return reports whether the error belongs to a known class.
func ClassifyError(err error) (ErrorType, bool) {
	switch {
	case err == nil:
		return "", false
	case stderrs.Is(err, errors.ErrBadRequest):
		return ValidationFailure, true
	case stderrs.Is(err, errors.ErrServerNotFound),
		stderrs.Is(err, errors.ErrToolNotFound),
		stderrs.Is(err, errors.ErrToolsNotFound),
		stderrs.Is(err, errors.ErrCompressedToolNotFound),
		stderrs.Is(err, errors.ErrHealthNotTracked):
		return RoutingFailure, true
	case stderrs.Is(err, errors.ErrSessionNotFound),
		stderrs.Is(err, errors.ErrToolListFailed),
		stderrs.Is(err, errors.ErrToolCallFailed),
		stderrs.Is(err, errors.ErrToolCallFailedUnknown):
		return UpstreamFailure, true
	default:
		return "", false
	}
}
