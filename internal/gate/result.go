package gate

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/kiranshivaraju/dandi/pkg/models"
)

// Result is the outcome of Authenticate. It is one of MissingKey, InvalidKey,
// LimitExceeded, ValidationError or Authorized; callers switch on the
// concrete type.
type Result interface {
	isResult()
}

// Failure is implemented by every Result that rejects the request.
type Failure interface {
	Result
	Status() int
	Code() string
	Message() string
}

// MissingKey means no key (or only whitespace) was presented.
type MissingKey struct{}

// InvalidKey means the presented key matches no record.
type InvalidKey struct{}

// LimitExceeded means the key has no monthly capacity left.
type LimitExceeded struct {
	MonthlyLimit int
}

// ValidationError wraps an unexpected failure during lookup or the capacity check.
type ValidationError struct {
	Err error
}

// Authorized lets the request through. Key is the record as read before the
// increment; Usage reflects the post-increment count.
type Authorized struct {
	Key           *models.APIKey
	Usage         UsageInfo
	Accounting    Accounting
	AccountingErr error
}

func (MissingKey) isResult()      {}
func (InvalidKey) isResult()      {}
func (LimitExceeded) isResult()   {}
func (ValidationError) isResult() {}
func (Authorized) isResult()      {}

func (MissingKey) Status() int  { return http.StatusBadRequest }
func (MissingKey) Code() string { return "MISSING_API_KEY" }
func (MissingKey) Message() string {
	return "Please provide an API key in the x-api-key header."
}

func (InvalidKey) Status() int  { return http.StatusUnauthorized }
func (InvalidKey) Code() string { return "INVALID_API_KEY" }
func (InvalidKey) Message() string {
	return "The provided API key does not exist or is invalid."
}

func (LimitExceeded) Status() int  { return http.StatusTooManyRequests }
func (LimitExceeded) Code() string { return "USAGE_LIMIT_EXCEEDED" }
func (r LimitExceeded) Message() string {
	return fmt.Sprintf("Monthly usage limit of %d requests exceeded.", r.MonthlyLimit)
}

func (ValidationError) Status() int  { return http.StatusInternalServerError }
func (ValidationError) Code() string { return "VALIDATION_FAILED" }
func (ValidationError) Message() string {
	return "An error occurred while validating the API key."
}

func (r ValidationError) Unwrap() error { return r.Err }

var (
	_ Failure = MissingKey{}
	_ Failure = InvalidKey{}
	_ Failure = LimitExceeded{}
	_ Failure = ValidationError{}
	_ Result  = Authorized{}
)

// Accounting records what happened to the usage increment of an Authorized request.
type Accounting int

const (
	// AccountingRecorded means the increment was persisted.
	AccountingRecorded Accounting = iota
	// AccountingPersistenceFailure means the increment failed and was
	// swallowed; the reported usage is computed rather than persisted.
	AccountingPersistenceFailure
)

func (a Accounting) String() string {
	switch a {
	case AccountingRecorded:
		return "recorded"
	case AccountingPersistenceFailure:
		return "persistence_failure"
	default:
		return "unknown"
	}
}

// UsageInfo is reported to an authorized caller.
type UsageInfo struct {
	CurrentUsage   int       `json:"currentUsage"`
	RemainingUsage Remaining `json:"remainingUsage"`
}

// Remaining is either a non-negative count or unlimited. It encodes to JSON
// as a number or the string "unlimited".
type Remaining struct {
	Unlimited bool
	Count     int
}

// Unlimited is the Remaining value of keys without a monthly limit.
var Unlimited = Remaining{Unlimited: true}

// Count returns a bounded Remaining, clamped at zero.
func Count(n int) Remaining {
	if n < 0 {
		n = 0
	}
	return Remaining{Count: n}
}

func (r Remaining) String() string {
	if r.Unlimited {
		return "unlimited"
	}
	return strconv.Itoa(r.Count)
}

func (r Remaining) MarshalJSON() ([]byte, error) {
	if r.Unlimited {
		return json.Marshal("unlimited")
	}
	return json.Marshal(r.Count)
}

func (r *Remaining) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "unlimited" {
			return fmt.Errorf("invalid remaining usage %q", s)
		}
		*r = Unlimited
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid remaining usage: %w", err)
	}
	*r = Remaining{Count: n}
	return nil
}
