package server_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/amethyst/internal/app/dispatch"
	"github.com/atinyakov/amethyst/internal/app/server"
	"github.com/atinyakov/amethyst/internal/app/service"
	"github.com/atinyakov/amethyst/internal/config"
	"github.com/atinyakov/amethyst/internal/metrics"
	"github.com/atinyakov/amethyst/internal/storage"
)

// fixedSource always yields the base36 token "abcde".
type fixedSource struct{}

func (fixedSource) Uint64() uint64 {
	n, _ := strconv.ParseUint("abcde", 36, 64)
	return n
}

func newTestServer(t *testing.T, opts *config.Options) (*httptest.Server, *storage.MemoryStorage) {
	t.Helper()

	mem, err := storage.CreateMemoryStorage()
	require.NoError(t, err)

	svc := service.NewLinkService(mem, service.NewSlugGenerator(mem, fixedSource{}, 2), zap.NewNop())
	d, err := dispatch.New(opts.ResultHostname, svc)
	require.NoError(t, err)

	h, err := server.Init(opts, svc, d, metrics.New(), zap.NewNop())
	require.NoError(t, err)

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	return ts, mem
}

func testOptions() *config.Options {
	return &config.Options{
		ResultHostname: "http://localhost:8080",
		RequestTimeout: time.Second,
		SlugAttempts:   2,
	}
}

func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func TestEndToEnd(t *testing.T) {
	ts, _ := newTestServer(t, testOptions())
	client := noRedirectClient()

	resp, err := client.Post(ts.URL+"/api/create", "application/json", strings.NewReader(`{"url":"example.com"}`))
	require.NoError(t, err)
	body := readBody(t, resp)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.JSONEq(t, `{"url":"http://localhost:8080/abcde"}`, body)

	resp, err = client.Get(ts.URL + "/abcde")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "http://example.com", resp.Header.Get("Location"))

	resp, err = client.Get(ts.URL + "/zzzzz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "http://localhost:8080/?code=404", resp.Header.Get("Location"))

	resp, err = client.Get(ts.URL + "/api/get?url=abcde")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"slug":"abcde","url":"http://example.com"}`, readBody(t, resp))

	// the only candidate the source yields is now taken
	resp, err = client.Post(ts.URL+"/api/create", "application/json", strings.NewReader(`{"url":"example.org"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, readBody(t, resp))
}

func TestPassThrough(t *testing.T) {
	ts, _ := newTestServer(t, testOptions())
	client := noRedirectClient()

	resp, err := client.Get(ts.URL + "/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, readBody(t, resp), "does not exist")

	resp, err = client.Get(ts.URL + "/?code=404")
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "That link does not exist.")

	resp, err = client.Get(ts.URL + "/api/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(ts.URL + "/api/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "amethyst_links_created_total")

	resp, err = client.Get(ts.URL + "/favicon.ico")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// only GET and HEAD are dispatched
	resp, err = client.Post(ts.URL+"/abcde", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSuppliedSlugAndDetailedErrors(t *testing.T) {
	opts := testOptions()
	opts.DetailedErrors = true
	ts, mem := newTestServer(t, opts)
	client := noRedirectClient()

	require.NoError(t, mem.Insert(context.Background(), "taken", "http://example.net"))

	resp, err := client.Post(ts.URL+"/api/create", "application/json", strings.NewReader(`{"url":"https://go.dev","path":"go"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.JSONEq(t, `{"url":"http://localhost:8080/go"}`, readBody(t, resp))

	resp, err = client.Post(ts.URL+"/api/create", "application/json", strings.NewReader(`{"url":"https://go.dev","path":"taken"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.JSONEq(t, `{"error":"slug_taken"}`, readBody(t, resp))

	resp, err = client.Post(ts.URL+"/api/create", "application/json", strings.NewReader(`{"url":"javascript:alert(1)"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"invalid_url"}`, readBody(t, resp))

	resp, err = client.Get(ts.URL + "/go/anything/after")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "https://go.dev", resp.Header.Get("Location"))
}

func TestStaticDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.css"), []byte("body{}"), 0644))

	opts := testOptions()
	opts.StaticDir = dir
	ts, _ := newTestServer(t, opts)

	resp, err := noRedirectClient().Get(ts.URL + "/app.css")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "body{}", readBody(t, resp))
}

func TestTrustedSubnet(t *testing.T) {
	opts := testOptions()
	opts.TrustedSubnet = "10.0.0.0/8"
	ts, _ := newTestServer(t, opts)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/metrics", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req.Header.Set("X-Real-IP", "10.1.2.3")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// API routes are not guarded
	resp, err = http.Get(ts.URL + "/api/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	opts.TrustedSubnet = "not-a-cidr"
	_, err = server.Init(opts, nil, nil, metrics.New(), zap.NewNop())
	assert.Error(t, err)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}
