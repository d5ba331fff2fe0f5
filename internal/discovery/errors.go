package discovery

import (
	"errors"
	"fmt"
	"strings"
)

// Provider outcomes, as recorded in analytics and metrics
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeNoMatch = "no_match"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

var (
	// ErrAllProvidersFailed is matched by errors.Is on every exhausted discovery
	ErrAllProvidersFailed = errors.New("all providers failed")
	// ErrEmptyResult means a provider answered with no recommendations
	ErrEmptyResult = errors.New("provider returned no recommendations")
	// ErrNoMatch means none of a provider's titles resolved in the catalog
	ErrNoMatch = errors.New("no recommendation matched the catalog")
)

// Attempt is one provider's part in a discovery request
type Attempt struct {
	Provider string `json:"provider"`
	Outcome  string `json:"outcome"`
	Error    string `json:"error,omitempty"`
}

// AllProvidersFailedError is returned when no provider produced a result.
// Last is the most recent underlying failure.
type AllProvidersFailedError struct {
	Attempts []Attempt
	Last     error
}

func (e *AllProvidersFailedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Provider+"="+a.Outcome)
	}
	msg := fmt.Sprintf("%s [%s]", ErrAllProvidersFailed, strings.Join(parts, " "))
	if e.Last != nil {
		msg += ": " + e.Last.Error()
	}
	return msg
}

func (e *AllProvidersFailedError) Unwrap() []error {
	if e.Last == nil {
		return []error{ErrAllProvidersFailed}
	}
	return []error{ErrAllProvidersFailed, e.Last}
}
