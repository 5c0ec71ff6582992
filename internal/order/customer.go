// Package order turns a finished cart into the text handed to the shop over WhatsApp.
package order

import (
	"strings"
)

// CustomerDetails are collected on the summary page. Notes are optional.
type CustomerDetails struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Notes   string `json:"notes,omitempty"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (c CustomerDetails) Trimmed() CustomerDetails {
	return CustomerDetails{
		Name:    strings.TrimSpace(c.Name),
		Phone:   strings.TrimSpace(c.Phone),
		Address: strings.TrimSpace(c.Address),
		Notes:   strings.TrimSpace(c.Notes),
	}
}

// ValidationError lists the required customer fields that were left blank.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "Please fill in valid name, phone, and address"
}

// ValidateCustomer blocks checkout unless name, phone and address are present.
func ValidateCustomer(c CustomerDetails) error {
	c = c.Trimmed()
	var missing []string
	if c.Name == "" {
		missing = append(missing, "name")
	}
	if c.Phone == "" {
		missing = append(missing, "phone")
	}
	if c.Address == "" {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
