package gemini

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"
)

// ErrorClass categorizes a Gemini API failure.
type ErrorClass int

const (
	// ClassNone is returned for a nil error.
	ClassNone ErrorClass = iota
	// ClassAuth means the API key is invalid, revoked or lacks permission.
	ClassAuth
	// ClassQuota means the request was rate limited or the quota is exhausted.
	ClassQuota
	// ClassTransient covers network failures and 5xx responses.
	ClassTransient
	// ClassBadRequest means the request itself was rejected.
	ClassBadRequest
	// ClassUnknown is anything else.
	ClassUnknown
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassAuth:
		return "auth"
	case ClassQuota:
		return "quota"
	case ClassTransient:
		return "transient"
	case ClassBadRequest:
		return "bad_request"
	default:
		return "unknown"
	}
}

// Retryable reports whether a call failing with this class may succeed later.
func (c ErrorClass) Retryable() bool {
	return c == ClassQuota || c == ClassTransient
}

// Classify inspects err, preferring the HTTP status of an API error and
// falling back to message patterns.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	if errors.Is(err, context.Canceled) {
		return ClassUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTransient
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyCode(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return classifyCode(apiErrPtr.Code)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "api key not valid", "invalid api key", "api_key_invalid", "permission denied"):
		return ClassAuth
	case containsAny(msg, "quota", "resource exhausted", "rate limit"):
		return ClassQuota
	case containsAny(msg, "connection", "network", "timeout", "dial", "no such host", "unreachable", "eof"):
		return ClassTransient
	default:
		return ClassUnknown
	}
}

func classifyCode(code int) ErrorClass {
	switch {
	case code == 401 || code == 403:
		return ClassAuth
	case code == 429:
		return ClassQuota
	case code >= 500:
		return ClassTransient
	case code >= 400:
		return ClassBadRequest
	default:
		return ClassUnknown
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
