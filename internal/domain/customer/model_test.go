package customer

import (
	"errors"
	"strings"
	"testing"
)

// TestCustomer_Validate tests customer field validation.
func TestCustomer_Validate(t *testing.T) {
	valid := Customer{ID: "c1", Name: "Maria Silva", Mobile: "11999990000"}
	tests := []struct {
		name    string
		mutate  func(c *Customer)
		wantErr error
	}{
		{"valid", func(c *Customer) {}, nil},
		{"valid with email and phone", func(c *Customer) { c.Email = "maria@example.com"; c.Phone = "1133334444" }, nil},
		{"blank name", func(c *Customer) { c.Name = "   " }, ErrEmptyName},
		{"missing mobile", func(c *Customer) { c.Mobile = "" }, ErrEmptyMobile},
		{"email without at", func(c *Customer) { c.Email = "maria.example.com" }, ErrInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			if err := c.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCustomer_ValidateLengths(t *testing.T) {
	c := Customer{Name: strings.Repeat("a", MaxNameLength+1), Mobile: "1"}
	if err := c.Validate(); err == nil {
		t.Error("expected error for long name")
	}
	c = Customer{Name: "a", Mobile: "1", Email: strings.Repeat("a", MaxEmailLength) + "@x"}
	if err := c.Validate(); err == nil {
		t.Error("expected error for long email")
	}
}

func TestCustomer_HasEmail(t *testing.T) {
	if (&Customer{}).HasEmail() {
		t.Error("empty email reported deliverable")
	}
	if !(&Customer{Email: "a@b"}).HasEmail() {
		t.Error("valid email reported undeliverable")
	}
}
