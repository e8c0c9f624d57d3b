// Package service holds the link business logic: destination normalisation,
// slug generation and the uniqueness-checked insert.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/atinyakov/amethyst/internal/storage"
)

type LinkService struct {
	repository Storage
	generator  *SlugGenerator
	logger     *zap.Logger
}

func NewLinkService(repo Storage, generator *SlugGenerator, logger *zap.Logger) *LinkService {
	return &LinkService{
		repository: repo,
		generator:  generator,
		logger:     logger,
	}
}

func (s *LinkService) PingContext(ctx context.Context) error {
	return s.repository.PingContext(ctx)
}

// CreateLink stores destination under slug, or under a generated slug when
// slug is empty. A supplied slug that is already taken is rejected with
// storage.ErrSlugTaken; a generated one that loses an insert race is drawn
// again within the generator's attempt budget.
func (s *LinkService) CreateLink(ctx context.Context, destination, slug string) (*storage.Link, error) {
	dest, err := PrepareDestination(destination)
	if err != nil {
		return nil, err
	}

	if slug != "" {
		if err := s.repository.Insert(ctx, slug, dest); err != nil {
			return nil, err
		}
		return &storage.Link{Slug: slug, Destination: dest}, nil
	}

	for attempt := 0; attempt < s.generator.MaxAttempts(); attempt++ {
		generated, err := s.generator.Generate(ctx)
		if err != nil {
			return nil, err
		}

		err = s.repository.Insert(ctx, generated, dest)
		if err == nil {
			return &storage.Link{Slug: generated, Destination: dest}, nil
		}
		if !errors.Is(err, storage.ErrSlugTaken) {
			return nil, fmt.Errorf("insert generated slug: %w", err)
		}

		s.logger.Debug("generated slug taken by a concurrent insert, retrying", zap.String("slug", generated))
	}

	return nil, ErrKeyspaceExhausted
}

// GetLinkBySlug resolves a slug. A miss is reported as storage.ErrNotFound.
func (s *LinkService) GetLinkBySlug(ctx context.Context, slug string) (*storage.Link, error) {
	if slug == "" {
		return nil, storage.ErrNotFound
	}

	return s.repository.FindBySlug(ctx, slug)
}

// Lookup adapts GetLinkBySlug to the dispatcher's lookup contract.
func (s *LinkService) Lookup(ctx context.Context, slug string) (*storage.Link, error) {
	return s.GetLinkBySlug(ctx, slug)
}
