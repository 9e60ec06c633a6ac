package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	goa "goa.design/goa/v3/pkg"

	apperrors "portfolio/pkg/errors"
)

// Contact form field bounds, counted in runes
const (
	nameMinLen    = 2
	nameMaxLen    = 100
	emailMaxLen   = 120
	subjectMinLen = 5
	subjectMaxLen = 200
	messageMinLen = 10
	messageMaxLen = 2000
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ContactSubmission is the raw contact form as submitted
type ContactSubmission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Normalize trims surrounding whitespace from every field
func (s ContactSubmission) Normalize() ContactSubmission {
	return ContactSubmission{
		Name:    strings.TrimSpace(s.Name),
		Email:   strings.TrimSpace(s.Email),
		Subject: strings.TrimSpace(s.Subject),
		Message: strings.TrimSpace(s.Message),
	}
}

// ValidateContact checks a normalized submission. On failure it returns a
// VALIDATION_ERROR AppError whose Fields hold one message per offending field
// and whose cause is the merged goa validation error.
func ValidateContact(s ContactSubmission) error {
	v := &formValidator{fields: map[string]string{}}

	v.length("name", s.Name, nameMinLen, nameMaxLen)
	v.length("subject", s.Subject, subjectMinLen, subjectMaxLen)
	v.length("message", s.Message, messageMinLen, messageMaxLen)
	v.email("email", s.Email, emailMaxLen)

	return v.result("invalid contact form")
}

type formValidator struct {
	fields map[string]string
	err    error
}

func (v *formValidator) fail(field, message string, err error) {
	if _, seen := v.fields[field]; !seen {
		v.fields[field] = message
	}
	v.err = goa.MergeErrors(v.err, err)
}

func (v *formValidator) required(field, value string) bool {
	if value == "" {
		v.fail(field, "is required", goa.MissingFieldError(field, "contact form"))
		return false
	}
	return true
}

func (v *formValidator) length(field, value string, min, max int) {
	if !v.required(field, value) {
		return
	}
	n := utf8.RuneCountInString(value)
	msg := fmt.Sprintf("must be between %d and %d characters", min, max)
	switch {
	case n < min:
		v.fail(field, msg, goa.InvalidLengthError(field, value, n, min, true))
	case n > max:
		v.fail(field, msg, goa.InvalidLengthError(field, value, n, max, false))
	}
}

func (v *formValidator) maxLength(field, value string, max int, required bool) {
	if value == "" {
		if required {
			v.required(field, value)
		}
		return
	}
	if n := utf8.RuneCountInString(value); n > max {
		v.fail(field, fmt.Sprintf("must be at most %d characters", max), goa.InvalidLengthError(field, value, n, max, false))
	}
}

func (v *formValidator) pattern(field, value string, re *regexp.Regexp, message string) {
	if value != "" && !re.MatchString(value) {
		v.fail(field, message, goa.InvalidPatternError(field, value, re.String()))
	}
}

func (v *formValidator) rangeOf(field string, value, min, max int) {
	switch {
	case value < min:
		v.fail(field, fmt.Sprintf("must be between %d and %d", min, max), goa.InvalidRangeError(field, value, min, true))
	case value > max:
		v.fail(field, fmt.Sprintf("must be between %d and %d", min, max), goa.InvalidRangeError(field, value, max, false))
	}
}

func (v *formValidator) email(field, value string, max int) {
	if !v.required(field, value) {
		return
	}
	if n := utf8.RuneCountInString(value); n > max {
		v.fail(field, fmt.Sprintf("must be at most %d characters", max), goa.InvalidLengthError(field, value, n, max, false))
		return
	}
	if err := goa.ValidateFormat(field, value, goa.FormatEmail); err != nil {
		v.fail(field, "must be a valid email address", err)
		return
	}
	// net/mail also accepts display-name forms such as "Jo <jo@x.com>"
	if !emailPattern.MatchString(value) {
		v.fail(field, "must be a valid email address", goa.InvalidFormatError(field, value, goa.FormatEmail, fmt.Errorf("not a bare address")))
	}
}

func (v *formValidator) result(message string) error {
	if len(v.fields) == 0 {
		return nil
	}
	return apperrors.Validation(message, v.fields, v.err)
}
