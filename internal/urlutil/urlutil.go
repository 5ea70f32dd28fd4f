// Package urlutil validates user submitted URLs and reduces them to the
// scheme://host form used as the uniqueness key for stored URLs.
package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// MaxLength is the longest URL accepted for submission
const MaxLength = 255

// ErrorKind classifies a validation failure
type ErrorKind int

const (
	KindRequired ErrorKind = iota + 1
	KindTooLong
	KindInvalid
)

// ValidationError describes why a submitted URL was rejected
type ValidationError struct {
	Kind ErrorKind
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindRequired:
		return "URL is required"
	case KindTooLong:
		return fmt.Sprintf("URL must not exceed %d characters", MaxLength)
	default:
		return "Invalid URL"
	}
}

var (
	urlTag  = fmt.Sprintf("required,max=%d,http_url", MaxLength)
	hostTag = "fqdn|ip"

	validate     *validator.Validate
	validateOnce sync.Once
)

func urlValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks that raw is a non-empty absolute http or https URL of at
// most MaxLength characters whose host is a fully qualified domain name or
// an IP address. It returns a *ValidationError or nil.
func Validate(raw string) error {
	err := urlValidator().Var(raw, urlTag)
	if err == nil {
		return validateHost(raw)
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Kind: KindInvalid}
	}
	switch fieldErrs[0].Tag() {
	case "required":
		return &ValidationError{Kind: KindRequired}
	case "max":
		return &ValidationError{Kind: KindTooLong}
	default:
		return &ValidationError{Kind: KindInvalid}
	}
}

// validateHost rejects hosts that http_url lets through, such as empty
// labels, labels with leading or trailing hyphens, and single-label names
func validateHost(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Kind: KindInvalid}
	}
	if err := urlValidator().Var(u.Hostname(), hostTag); err != nil {
		return &ValidationError{Kind: KindInvalid}
	}
	return nil
}

// Normalize returns the scheme://host part of raw. Path, query, fragment and
// user info are dropped; the host keeps its case and port. Input that does
// not parse is returned trimmed and otherwise unchanged.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}
	return u.Scheme + "://" + u.Host
}
