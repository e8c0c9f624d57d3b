package service

import (
	"context"

	"github.com/atinyakov/amethyst/internal/storage"
)

// Storage is the link store contract shared by the memory, file and SQL
// implementations.
type Storage interface {
	Insert(ctx context.Context, slug, destination string) error
	FindBySlug(ctx context.Context, slug string) (*storage.Link, error)
	PingContext(context.Context) error
}

// LinkServiceIface is what the HTTP and gRPC transports need from the
// link service.
type LinkServiceIface interface {
	CreateLink(ctx context.Context, destination, slug string) (*storage.Link, error)
	GetLinkBySlug(ctx context.Context, slug string) (*storage.Link, error)
	PingContext(ctx context.Context) error
}
