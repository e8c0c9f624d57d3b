// Package storage holds the Link record and the in-process link stores:
// a map guarded by a mutex and an append-only JSON lines file.
package storage

import "errors"

// ErrNotFound is returned when no Link exists for the requested slug.
var ErrNotFound = errors.New("not found")

// ErrSlugTaken is returned by Insert when the slug is already stored.
var ErrSlugTaken = errors.New("slug already taken")

// Link maps a slug to its destination URL.
type Link struct {
	Slug        string `json:"slug"`
	Destination string `json:"url"`
}
