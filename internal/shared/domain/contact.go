package domain

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)
)

// Email is a validated e-mail address.
type Email struct {
	value string
}

// NewEmail validates and creates an Email.
func NewEmail(value string) (Email, error) {
	if !emailPattern.MatchString(value) {
		return Email{}, Invariantf("invalid email: %q", value)
	}
	return Email{value: value}, nil
}

func (e Email) String() string { return e.value }

// Equals checks if two emails are equal.
func (e Email) Equals(other Email) bool { return e.value == other.value }

// Phone is a validated phone number in E.164-like form.
type Phone struct {
	value string
}

// NewPhone validates and creates a Phone.
func NewPhone(value string) (Phone, error) {
	if !phonePattern.MatchString(value) {
		return Phone{}, Invariantf("invalid phone number: %q", value)
	}
	return Phone{value: value}, nil
}

func (p Phone) String() string { return p.value }

// FullName holds a person's first and last name, both trimmed and non-blank.
type FullName struct {
	first string
	last  string
}

// NewFullName validates and creates a FullName.
func NewFullName(first, last string) (FullName, error) {
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	if first == "" {
		return FullName{}, Invariantf("first name cannot be blank")
	}
	if last == "" {
		return FullName{}, Invariantf("last name cannot be blank")
	}
	return FullName{first: first, last: last}, nil
}

func (n FullName) First() string { return n.first }
func (n FullName) Last() string  { return n.last }

// Full returns "First Last".
func (n FullName) Full() string { return n.first + " " + n.last }

func (n FullName) String() string { return n.Full() }
