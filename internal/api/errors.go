package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies every failure a service call can surface. Callers branch
// on the kind, never on raw status codes or transport errors.
type Kind string

const (
	// KindValidation covers malformed or rejected input, including
	// business rules only the service enforces (overlaps, quotas).
	KindValidation Kind = "validation"

	// KindConflict covers duplicate identity, e.g. a taken username.
	KindConflict Kind = "conflict"

	// KindUnauthorized covers a missing, expired, or invalid credential.
	KindUnauthorized Kind = "unauthorized"

	// KindNotFound covers a target that is absent or not owned by the caller.
	KindNotFound Kind = "not_found"

	// KindUnreachable covers every transport-level failure: timeouts,
	// refused connections, malformed responses, and any status code the
	// mapping table does not name.
	KindUnreachable Kind = "unreachable"
)

// Error is the normalized failure returned by every service operation.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindOf extracts the failure kind from err, or KindUnreachable when err
// did not originate from a service operation.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnreachable
}

// IsUnauthorized reports whether err is a credential failure.
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// kindForStatus is the fixed mapping table from response status codes.
// Codes not listed map to KindUnreachable rather than being guessed.
func kindForStatus(code int) Kind {
	switch code {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusUnprocessableEntity:
		return KindValidation
	default:
		return KindUnreachable
	}
}

// errorFromResponse builds the normalized error for a non-2xx response,
// carrying the service's detail string through when the body has one.
func errorFromResponse(code int, body []byte) *Error {
	kind := kindForStatus(code)
	message := defaultMessage(kind)
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil && detail != "" {
			message = detail
		}
	}
	return &Error{Kind: kind, Message: message}
}

func defaultMessage(kind Kind) string {
	switch kind {
	case KindValidation:
		return "the service rejected the submitted fields"
	case KindConflict:
		return "that name is already taken"
	case KindUnauthorized:
		return "sign in required"
	case KindNotFound:
		return "no such appointment"
	default:
		return "the appointment service could not be reached"
	}
}
