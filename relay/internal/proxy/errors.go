package proxy

import (
	"errors"
	"fmt"
)

var (
	ErrMissingParameter    = errors.New("missing required parameter")
	ErrPatternMismatch     = errors.New("url does not match the attachment pattern")
	ErrMalformedURL        = errors.New("malformed url")
	ErrUpstreamUnreachable = errors.New("upstream request failed")
	ErrReadBody            = errors.New("failed to read upstream body")
	ErrTooLarge            = errors.New("upstream body exceeds the size ceiling")
	ErrEmptyContent        = errors.New("upstream body is empty")
)

// UpstreamStatusError is returned when the upstream answers with a non-2xx status.
type UpstreamStatusError struct {
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// Outcome labels used in logs, counters and events.
const (
	OutcomeOK                  = "ok"
	OutcomeMissingParameter    = "missing_parameter"
	OutcomePatternMismatch     = "pattern_mismatch"
	OutcomeMalformedURL        = "malformed_url"
	OutcomeUpstreamStatus      = "upstream_status"
	OutcomeUpstreamUnreachable = "upstream_unreachable"
	OutcomeReadBody            = "read_body"
	OutcomeTooLarge            = "too_large"
	OutcomeEmptyContent        = "empty_content"
	OutcomeInternal            = "internal"
)

// Describe maps a Validate or Fetch error to its outcome label and the
// message shown to the caller. A nil error describes success.
func Describe(err error) (outcome, message string) {
	var statusErr *UpstreamStatusError

	switch {
	case err == nil:
		return OutcomeOK, ""
	case errors.Is(err, ErrMissingParameter):
		return OutcomeMissingParameter, "Invalid URL format"
	case errors.Is(err, ErrPatternMismatch):
		return OutcomePatternMismatch, "Invalid URL format"
	case errors.Is(err, ErrMalformedURL):
		return OutcomeMalformedURL, "Invalid URL"
	case errors.As(err, &statusErr):
		return OutcomeUpstreamStatus, fmt.Sprintf("Request failed with status code %d", statusErr.StatusCode)
	case errors.Is(err, ErrUpstreamUnreachable):
		return OutcomeUpstreamUnreachable, "Failed to fetch the URL"
	case errors.Is(err, ErrReadBody):
		return OutcomeReadBody, "Failed to read the response"
	case errors.Is(err, ErrTooLarge):
		return OutcomeTooLarge, "File too large"
	case errors.Is(err, ErrEmptyContent):
		return OutcomeEmptyContent, "No content received from the URL"
	default:
		return OutcomeInternal, "Internal error"
	}
}
