package orchestrators

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	validatorengine "github.com/go-playground/validator/v10"
)

// Booking error kinds. Match with errors.Is.
var (
	ErrValidation           = errors.New("validation failed")
	ErrDateConflict         = errors.New("date already booked")
	ErrCreateFailed         = errors.New("create failed")
	ErrUpdateFailed         = errors.New("update failed")
	ErrDeleteFailed         = errors.New("delete failed")
	ErrFetchFailed          = errors.New("fetch failed")
	ErrScheduleCreateFailed = errors.New("schedule create failed after event was created")
	ErrPartialDeleteFailure = errors.New("joint delete partially applied")
)

// Record names used on RemoteError.
const (
	RecordEvent    = "event"
	RecordSchedule = "schedule"
)

// FallbackMessage is shown when the store gives no message of its own.
const FallbackMessage = "Please try again later."

// RemoteMessenger is implemented by transport errors that carry a
// human-readable message from the store.
type RemoteMessenger interface {
	RemoteMessage() string
}

// ValidationError names the first invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// RemoteError reports a failed call to the store.
// Kind is one of the Err* kinds above; Record names the record the call was about.
type RemoteError struct {
	Kind    error
	Record  string
	Message string
	Err     error

	// Set on ErrScheduleCreateFailed: whether the orphan event was removed.
	CompensationAttempted bool
	CompensationErr       error

	// Set on ErrPartialDeleteFailure: the record that still exists.
	Survivor string
}

// Error implements error.
func (e *RemoteError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Record != "" {
		fmt.Fprintf(&b, " (%s)", e.Record)
	}
	if e.Survivor != "" {
		fmt.Fprintf(&b, ", %s still exists", e.Survivor)
	}
	if e.CompensationAttempted {
		if e.CompensationErr != nil {
			b.WriteString(", orphan event could not be removed")
		} else {
			b.WriteString(", orphan event removed")
		}
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Is matches the error kind.
func (e *RemoteError) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the transport error.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// OrphanRemains reports whether a compensating delete left an event behind.
func (e *RemoteError) OrphanRemains() bool {
	return e.Kind == ErrScheduleCreateFailed && (!e.CompensationAttempted || e.CompensationErr != nil)
}

func newRemoteError(kind error, record string, err error) *RemoteError {
	return &RemoteError{Kind: kind, Record: record, Message: MessageOf(err), Err: err}
}

// MessageOf extracts the store's message from err, or FallbackMessage.
func MessageOf(err error) string {
	var rm RemoteMessenger
	if errors.As(err, &rm) {
		if msg := strings.TrimSpace(rm.RemoteMessage()); msg != "" {
			return msg
		}
	}
	return FallbackMessage
}

var (
	validateOnce sync.Once
	validate     *validatorengine.Validate
)

func inputValidator() *validatorengine.Validate {
	validateOnce.Do(func() {
		validate = validatorengine.New()
	})
	return validate
}

// validateInput runs struct tag validation and maps the first failure to a ValidationError.
func validateInput(input any) error {
	err := inputValidator().Struct(input)
	if err == nil {
		return nil
	}
	var verrs validatorengine.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{Field: strings.ToLower(fe.Field()), Message: describeTag(fe)}
	}
	return &ValidationError{Field: "input", Message: err.Error()}
}

func describeTag(fe validatorengine.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}
