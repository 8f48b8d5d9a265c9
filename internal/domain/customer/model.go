package customer

import (
	"errors"
	"strings"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength  = 200
	MaxEmailLength = 254
)

// Domain errors
var (
	ErrEmptyName    = errors.New("customer name cannot be empty")
	ErrEmptyMobile  = errors.New("customer mobile cannot be empty")
	ErrInvalidEmail = errors.New("customer email must contain '@'")
)

// Customer is the external customer record an Event refers to.
// Events hold the ID plus a copy of these fields for display.
type Customer struct {
	ID     string
	Name   string
	Phone  string // optional landline
	Mobile string
	Email  string
}

// Validate checks if the Customer has valid data.
// PRE: Customer struct is populated
// POST: Returns nil if valid, error otherwise
func (c *Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > MaxNameLength {
		return errors.New("customer name cannot exceed 200 characters")
	}
	if strings.TrimSpace(c.Mobile) == "" {
		return ErrEmptyMobile
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return ErrInvalidEmail
	}
	if len(c.Email) > MaxEmailLength {
		return errors.New("customer email cannot exceed 254 characters")
	}
	return nil
}

// HasEmail reports whether notifications can be delivered to the customer.
func (c *Customer) HasEmail() bool {
	return strings.Contains(c.Email, "@")
}
