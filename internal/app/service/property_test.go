package service

import (
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type constSource uint64

func (c constSource) Uint64() uint64 { return uint64(c) }

func TestProperty_CandidateShape(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500

	properties := gopter.NewProperties(parameters)

	properties.Property("candidate is the first letters of the base36 token", prop.ForAll(
		func(n uint64) bool {
			g := NewSlugGenerator(nil, constSource(n), 1)
			got := g.candidate()

			if len(got) > SlugLength {
				t.Logf("too long: %q", got)
				return false
			}

			var letters strings.Builder
			for _, c := range strconv.FormatUint(n, 36) {
				if c >= 'a' && c <= 'z' {
					letters.WriteRune(c)
				}
			}
			want := letters.String()
			if len(want) > SlugLength {
				want = want[:SlugLength]
			}

			if got != want {
				t.Logf("token %d: got %q, want %q", n, got, want)
				return false
			}
			return true
		},
		gen.UInt64(),
	))

	properties.TestingRun(t)
}

func TestProperty_NormalizeDestination(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("normalisation is idempotent and yields an http(s) prefix", prop.ForAll(
		func(prefix, rest string) bool {
			once := NormalizeDestination(prefix + rest)
			if NormalizeDestination(once) != once {
				return false
			}

			lower := strings.ToLower(once)
			return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
		},
		gen.OneConstOf("", "http://", "https://", "HTTPS://", "ftp://", "http"),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
