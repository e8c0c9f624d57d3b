// Package models defines the request and response bodies of the HTTP API.
package models

// CreateRequest is the body of POST /api/create.
type CreateRequest struct {
	// URL is the destination to shorten.
	URL string `json:"url"`

	// Path is the desired slug. Empty means a generated one.
	Path string `json:"path,omitempty"`
}

// CreateResponse carries the fully qualified short URL.
type CreateResponse struct {
	URL string `json:"url"`
}

// ErrorResponse is written instead of an empty body when detailed errors are
// enabled.
type ErrorResponse struct {
	Error string `json:"error"`
}
