package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"flickpick-discovery-service/pkg/httpclient"
)

// Kind classifies a provider failure for the orchestrator
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindQuota         Kind = "quota"
	KindRateLimited   Kind = "rate_limited"
	KindTransient     Kind = "transient"
	KindParse         Kind = "parse"
)

// ErrNotConfigured is wrapped by configuration errors caused by absent credentials
var ErrNotConfigured = errors.New("credentials not configured")

// Error is a classified provider failure
type Error struct {
	Provider string
	Kind     Kind
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return "provider error"
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(provider string, kind Kind, err error) *Error {
	return &Error{Provider: provider, Kind: kind, Err: err}
}

// KindOf returns the classification of err. Unclassified errors are transient.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindTransient
}

// IsRetryable reports whether the same provider may be retried after err.
// Configuration, quota and rate-limit failures are final for this call;
// parse failures degrade to an empty result instead.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch KindOf(err) {
	case KindConfiguration, KindQuota, KindRateLimited, KindParse:
		return false
	}
	return true
}

var quotaMarkers = []string{
	"insufficient balance",
	"insufficient_quota",
	"credit balance",
	"billing",
	"exceeded your current quota",
}

// classifyStatus maps an upstream HTTP status onto a Kind
func classifyStatus(status int, body string) Kind {
	switch {
	case status == http.StatusTooManyRequests:
		if hasQuotaMarker(body) {
			return KindQuota
		}
		return KindRateLimited
	case status == http.StatusPaymentRequired:
		return KindQuota
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindConfiguration
	case status == http.StatusBadRequest && hasQuotaMarker(body):
		return KindQuota
	}
	return KindTransient
}

func hasQuotaMarker(body string) bool {
	lower := strings.ToLower(body)
	for _, m := range quotaMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// classify wraps an error from pkg/httpclient with its Kind
func classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	if se, ok := httpclient.AsStatusError(err); ok {
		return newError(provider, classifyStatus(se.StatusCode, se.Body), err)
	}
	// timeouts, resets and decode failures
	return newError(provider, KindTransient, err)
}
