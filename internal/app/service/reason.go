package service

import (
	"errors"

	"github.com/atinyakov/amethyst/internal/storage"
)

// Failure reasons reported to clients in detailed mode and used as the
// "reason" label of the create failure counter.
const (
	ReasonMalformedRequest   = "malformed_request"
	ReasonInvalidURL         = "invalid_url"
	ReasonSlugTaken          = "slug_taken"
	ReasonKeyspaceExhausted  = "keyspace_exhausted"
	ReasonStorageUnavailable = "storage_unavailable"
)

// Reason classifies an error returned by CreateLink.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidURL):
		return ReasonInvalidURL
	case errors.Is(err, storage.ErrSlugTaken):
		return ReasonSlugTaken
	case errors.Is(err, ErrKeyspaceExhausted):
		return ReasonKeyspaceExhausted
	default:
		return ReasonStorageUnavailable
	}
}
