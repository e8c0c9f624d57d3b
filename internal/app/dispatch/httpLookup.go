package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/atinyakov/amethyst/internal/storage"
)

// HTTPLookup resolves slugs through the lookup endpoint of a running
// service (GET {endpoint}/api/get?url={slug}). Concurrent lookups of the
// same slug share one request.
type HTTPLookup struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	group    singleflight.Group
}

func NewHTTPLookup(endpoint string, timeout time.Duration) *HTTPLookup {
	return &HTTPLookup{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
		timeout:  timeout,
	}
}

// Lookup waits for the shared request until ctx is done. The request itself
// is detached from ctx, so one caller going away does not fail the others.
func (l *HTTPLookup) Lookup(ctx context.Context, slug string) (*storage.Link, error) {
	ch := l.group.DoChan(slug, func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)
		if l.timeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, l.timeout)
			defer cancel()
		}

		return l.fetch(fetchCtx, slug)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		link := *res.Val.(*storage.Link)
		return &link, nil
	}
}

func (l *HTTPLookup) fetch(ctx context.Context, slug string) (*storage.Link, error) {
	u := l.endpoint + "/api/get?" + url.Values{"url": {slug}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	res, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", slug, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, storage.ErrNotFound
	default:
		return nil, fmt.Errorf("lookup %q: unexpected status %d", slug, res.StatusCode)
	}

	var link storage.Link
	if err := json.NewDecoder(res.Body).Decode(&link); err != nil {
		return nil, fmt.Errorf("lookup %q: decode: %w", slug, err)
	}

	return &link, nil
}
