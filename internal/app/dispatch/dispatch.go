// Package dispatch decides, for an incoming path, whether the request is
// passed through to normal routing or redirected to a stored destination.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/atinyakov/amethyst/internal/storage"
)

// NotFoundCode is the value of the "code" query parameter the landing page
// reads to show its "link not found" banner.
const NotFoundCode = "404"

// Lookup resolves a slug. A miss must be reported as storage.ErrNotFound.
type Lookup interface {
	Lookup(ctx context.Context, slug string) (*storage.Link, error)
}

type Action int

const (
	PassThrough Action = iota
	Redirect
)

// Decision is the outcome of dispatching one path.
type Decision struct {
	Action   Action
	Slug     string
	Location string
	// Found is false when the slug had no stored link.
	Found bool
}

// Classify extracts the candidate slug from path. pass is true for static
// assets (any "." in the path), the internal API tree and the root path.
func Classify(path string) (slug string, pass bool) {
	if strings.Contains(path, ".") || path == "/api" || strings.HasPrefix(path, "/api/") {
		return "", true
	}

	slug, _, _ = strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if slug == "" {
		return "", true
	}

	return slug, false
}

// NotFoundURL is the landing page address carrying the not-found signal.
func NotFoundURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	if u.Path == "" {
		u.Path = "/"
	}
	q := u.Query()
	q.Set("code", NotFoundCode)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Decide turns a lookup outcome into a redirect. It performs no I/O.
func Decide(notFoundURL, slug string, link *storage.Link) Decision {
	if link == nil {
		return Decision{Action: Redirect, Slug: slug, Location: notFoundURL}
	}

	return Decision{Action: Redirect, Slug: slug, Location: link.Destination, Found: true}
}

type Dispatcher struct {
	lookup      Lookup
	notFoundURL string
}

func New(baseURL string, lookup Lookup) (*Dispatcher, error) {
	nf, err := NotFoundURL(baseURL)
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		lookup:      lookup,
		notFoundURL: nf,
	}, nil
}

// Dispatch classifies path and, for a slug, performs a single lookup.
// Errors other than a miss are returned to the caller untouched.
func (d *Dispatcher) Dispatch(ctx context.Context, path string) (Decision, error) {
	slug, pass := Classify(path)
	if pass {
		return Decision{Action: PassThrough}, nil
	}

	link, err := d.lookup.Lookup(ctx, slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Decide(d.notFoundURL, slug, nil), nil
		}
		return Decision{Slug: slug}, err
	}

	return Decide(d.notFoundURL, slug, link), nil
}
