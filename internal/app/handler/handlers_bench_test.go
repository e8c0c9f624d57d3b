package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/atinyakov/amethyst/internal/app/service"
	"github.com/atinyakov/amethyst/internal/metrics"
	"github.com/atinyakov/amethyst/internal/storage"
)

func BenchmarkCreate(b *testing.B) {
	mem, _ := storage.CreateMemoryStorage()
	svc := service.NewLinkService(mem, service.NewSlugGenerator(mem, nil, service.DefaultSlugAttempts), zap.NewNop())
	h := NewCreate("http://localhost:8080", svc, metrics.New(), zap.NewNop(), false)

	body := []byte(`{"url":"https://example.com"}`)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/create", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		h.Create(httptest.NewRecorder(), req)
	}
}

func BenchmarkBySlug(b *testing.B) {
	mem, _ := storage.CreateMemoryStorage()
	svc := service.NewLinkService(mem, service.NewSlugGenerator(mem, nil, service.DefaultSlugAttempts), zap.NewNop())
	_ = mem.Insert(b.Context(), "abcde", "http://example.com")
	h := NewGet(svc, zap.NewNop())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.BySlug(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/get?url=abcde", nil))
	}
}
