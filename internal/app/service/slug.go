package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/atinyakov/amethyst/internal/storage"
)

const (
	// SlugLength is the length of generated slugs. Shorter slugs are possible
	// when a draw yields fewer letters; they are never padded.
	SlugLength = 5

	// DefaultSlugAttempts bounds the regenerate-on-collision loop.
	DefaultSlugAttempts = 32
)

// ErrKeyspaceExhausted is returned when every attempt produced a slug that is
// already stored.
var ErrKeyspaceExhausted = errors.New("slug keyspace exhausted")

// Source yields pseudo-random tokens. *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Uint64() uint64
}

type globalSource struct{}

func (globalSource) Uint64() uint64 { return rand.Uint64() }

// SlugGenerator draws random lowercase slugs and skips those already taken.
type SlugGenerator struct {
	storage     Storage
	source      Source
	maxAttempts int
}

// NewSlugGenerator builds a generator over storage. A nil source uses the
// process-wide generator, which is safe for concurrent use; attempts <= 0
// falls back to DefaultSlugAttempts.
func NewSlugGenerator(storage Storage, source Source, attempts int) *SlugGenerator {
	if source == nil {
		source = globalSource{}
	}
	if attempts <= 0 {
		attempts = DefaultSlugAttempts
	}

	return &SlugGenerator{
		storage:     storage,
		source:      source,
		maxAttempts: attempts,
	}
}

// MaxAttempts reports the loop bound.
func (g *SlugGenerator) MaxAttempts() int {
	return g.maxAttempts
}

// candidate renders a random token in base 36, keeps the letters only and
// truncates the result to SlugLength.
func (g *SlugGenerator) candidate() string {
	token := strconv.FormatUint(g.source.Uint64(), 36)

	var sb strings.Builder
	for _, c := range token {
		if c >= 'a' && c <= 'z' {
			sb.WriteRune(c)
			if sb.Len() == SlugLength {
				break
			}
		}
	}

	return sb.String()
}

// Generate returns the first candidate that is not stored yet.
func (g *SlugGenerator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		slug := g.candidate()
		if slug == "" {
			continue
		}

		_, err := g.storage.FindBySlug(ctx, slug)
		if errors.Is(err, storage.ErrNotFound) {
			return slug, nil
		}
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", slug, err)
		}
	}

	return "", ErrKeyspaceExhausted
}
