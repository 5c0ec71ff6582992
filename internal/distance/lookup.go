package distance

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrStaleLookup marks a geolocation answer for a lookup that was cancelled or
// superseded. The answer is dropped and the distance stays as it was.
var ErrStaleLookup = errors.New("geolocation result does not match the pending lookup")

// Failure is the reason the browser gave for not producing a position.
type Failure string

const (
	FailureUnsupported Failure = "unsupported"
	FailureDenied      Failure = "denied"
	FailureTimeout     Failure = "timeout"
	FailureUnavailable Failure = "unavailable"
)

// LookupError is shown to the buyer as a blocking notice.
type LookupError struct {
	Reason Failure
}

func (e *LookupError) Error() string {
	if e.Reason == FailureUnsupported {
		return "Geolocation is not supported by your browser"
	}
	return "Unable to retrieve your location"
}

// Lookup tracks the single outstanding geolocation request of a session.
// The zero value has nothing pending.
type Lookup struct {
	token string
}

func (l Lookup) Pending() bool { return l.token != "" }

// Begin starts a request. Any earlier pending token becomes stale.
func (l Lookup) Begin() (Lookup, string) {
	token := uuid.NewString()
	return Lookup{token: token}, token
}

// Cancel abandons the pending request, e.g. when the buyer leaves the summary page.
func (l Lookup) Cancel() Lookup { return Lookup{} }

// Resolve applies a successful position. On a stale token the current distance is
// returned unchanged with ErrStaleLookup.
func (l Lookup) Resolve(token string, shop, buyer Coordinate, current Km) (Lookup, Km, error) {
	if !l.matches(token) {
		return l, current, ErrStaleLookup
	}
	if err := buyer.Validate(); err != nil {
		return Lookup{}, current, fmt.Errorf("%w: %v", &LookupError{Reason: FailureUnavailable}, err)
	}
	return Lookup{}, Between(shop, buyer), nil
}

// Fail closes the pending request with the browser's error. The distance is untouched.
func (l Lookup) Fail(token string, reason Failure) (Lookup, error) {
	if !l.matches(token) {
		return l, ErrStaleLookup
	}
	return Lookup{}, &LookupError{Reason: reason}
}

func (l Lookup) matches(token string) bool {
	return l.token != "" && token == l.token
}
