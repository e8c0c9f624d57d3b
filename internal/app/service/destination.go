package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidURL is returned for a missing destination or one that is not an
// absolute http(s) URL after normalisation.
var ErrInvalidURL = errors.New("invalid destination url")

var schemes = []string{"http://", "https://"}

type destination struct {
	URL string `validate:"required,http_url"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NormalizeDestination prefixes http:// when the input has no recognised
// scheme. Anything else is left untouched.
func NormalizeDestination(raw string) string {
	lower := strings.ToLower(raw)
	for _, s := range schemes {
		if strings.HasPrefix(lower, s) {
			return raw
		}
	}

	return "http://" + raw
}

// PrepareDestination trims, normalises and validates a submitted URL.
func PrepareDestination(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}

	d := destination{URL: NormalizeDestination(raw)}
	if err := validate.Struct(d); err != nil {
		return "", errors.Join(ErrInvalidURL, err)
	}

	return d.URL, nil
}
