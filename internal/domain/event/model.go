package event

import (
	"errors"
	"strings"

	"partyplanner/internal/domain/customer"
)

// Length is the party package size.
type Length string

// Length constants
const (
	LengthSmall  Length = "small"
	LengthMedium Length = "medium"
	LengthLarge  Length = "large"
)

// ValidLengths contains all valid length values.
var ValidLengths = []Length{LengthSmall, LengthMedium, LengthLarge}

// Wire codes of the package sizes used by the remote API.
var lengthCodes = map[Length]string{
	LengthSmall:  "P",
	LengthMedium: "M",
	LengthLarge:  "G",
}

// Code returns the single-letter wire code of l, or "" if l is unknown.
func (l Length) Code() string {
	return lengthCodes[l]
}

// LengthFromCode maps a wire code (P, M, G) back to a Length.
func LengthFromCode(code string) (Length, error) {
	for l, c := range lengthCodes {
		if strings.EqualFold(c, strings.TrimSpace(code)) {
			return l, nil
		}
	}
	return "", ErrInvalidLength
}

// Max length constants for user-editable fields.
const (
	MaxAddressLength     = 300
	MaxThemeLength       = 120
	MaxDescriptionLength = 2000
)

// Domain errors
var (
	ErrEmptyAddress        = errors.New("event address cannot be empty")
	ErrEmptyTheme          = errors.New("event theme cannot be empty")
	ErrEmptyBirthdayPerson = errors.New("event birthday person cannot be empty")
	ErrEmptyCustomer       = errors.New("event must reference a customer")
	ErrInvalidLength       = errors.New("event length must be one of: small, medium, large")
	ErrNegativeValue       = errors.New("event value cannot be negative")
)

// Event holds the commercial details of a party.
// The Schedule is referenced by ID only; Customer is a display snapshot
// taken at booking time, CustomerID is the reference.
type Event struct {
	ID             string
	Length         Length
	Address        string
	Theme          string
	BirthdayPerson string
	Description    string // optional
	ValueCents     int64
	State          State
	CustomerID     string
	Customer       customer.Customer
	ScheduleID     string // empty only between event and schedule creation
}

// Validate checks if the Event has valid data.
// PRE: Event struct is populated
// POST: Returns nil if valid, error describing the first violation otherwise
func (e *Event) Validate() error {
	if strings.TrimSpace(e.CustomerID) == "" {
		return ErrEmptyCustomer
	}
	if !IsValidLength(e.Length) {
		return ErrInvalidLength
	}
	if strings.TrimSpace(e.Address) == "" {
		return ErrEmptyAddress
	}
	if len(e.Address) > MaxAddressLength {
		return errors.New("event address cannot exceed 300 characters")
	}
	if strings.TrimSpace(e.Theme) == "" {
		return ErrEmptyTheme
	}
	if len(e.Theme) > MaxThemeLength {
		return errors.New("event theme cannot exceed 120 characters")
	}
	if strings.TrimSpace(e.BirthdayPerson) == "" {
		return ErrEmptyBirthdayPerson
	}
	if len(e.Description) > MaxDescriptionLength {
		return errors.New("event description cannot exceed 2000 characters")
	}
	if e.ValueCents < 0 {
		return ErrNegativeValue
	}
	if !e.State.IsValid() {
		return ErrInvalidState
	}
	return nil
}

// IsValidLength reports whether l is a known package size.
func IsValidLength(l Length) bool {
	for _, v := range ValidLengths {
		if v == l {
			return true
		}
	}
	return false
}

// HasSchedule reports whether the event has been placed on the calendar.
func (e *Event) HasSchedule() bool {
	return e.ScheduleID != ""
}
