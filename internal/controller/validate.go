package controller

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	MinTimeoutSeconds = 1
	MaxTimeoutSeconds = 15
)

var (
	ErrEmptyURL          = errors.New("URL is required!")
	ErrInvalidURLFormat  = errors.New("URL is in invalid format!")
	ErrTimeoutOutOfRange = fmt.Errorf("Timeout value must be between %d and %d", MinTimeoutSeconds, MaxTimeoutSeconds)
)

// urlSpace is the whitespace and line terminator set of ECMAScript \s, which
// is wider than the RE2 \s class.
const urlSpace = `\t\n\v\f\r \x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}`

// urlPattern is ^(https?|ftp)://[^\s/$.?#].[^\s]*$ with \s and . spelled out
// so that every Unicode space and line terminator is rejected.
var urlPattern = regexp.MustCompile(`(?i)^(https?|ftp)://[^` + urlSpace + `/$.?#][^\n\r\x{2028}\x{2029}][^` + urlSpace + `]*$`)

func isURLSpace(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\v', r == '\f', r == '\r', r == ' ':
		return true
	case r == 0x00a0, r == 0x1680, r >= 0x2000 && r <= 0x200a:
		return true
	case r == 0x2028, r == 0x2029, r == 0x202f, r == 0x205f, r == 0x3000, r == 0xfeff:
		return true
	}
	return false
}

// ValidationError carries the per-field failures of one submit attempt.
// A nil field passed its check.
type ValidationError struct {
	URL     error
	Timeout error
}

func (e *ValidationError) Error() string {
	var parts []string
	if e.URL != nil {
		parts = append(parts, e.URL.Error())
	}
	if e.Timeout != nil {
		parts = append(parts, e.Timeout.Error())
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() []error {
	var errs []error
	if e.URL != nil {
		errs = append(errs, e.URL)
	}
	if e.Timeout != nil {
		errs = append(errs, e.Timeout)
	}
	return errs
}

// ValidateURL checks that raw is a non-blank http, https or ftp URL
func ValidateURL(raw string) error {
	if strings.TrimFunc(raw, isURLSpace) == "" {
		return ErrEmptyURL
	}
	if !urlPattern.MatchString(raw) {
		return ErrInvalidURLFormat
	}
	return nil
}

// ValidateTimeout checks an optional timeout in seconds
func ValidateTimeout(seconds *int) error {
	if seconds == nil {
		return nil
	}
	if *seconds < MinTimeoutSeconds || *seconds > MaxTimeoutSeconds {
		return ErrTimeoutOutOfRange
	}
	return nil
}

// validate runs both checks without short-circuiting
func validate(rawURL string, timeout *int) *ValidationError {
	urlErr := ValidateURL(rawURL)
	timeoutErr := ValidateTimeout(timeout)
	if urlErr == nil && timeoutErr == nil {
		return nil
	}
	return &ValidationError{URL: urlErr, Timeout: timeoutErr}
}
