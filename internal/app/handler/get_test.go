package handler_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/atinyakov/amethyst/internal/app/handler"
	"github.com/atinyakov/amethyst/internal/mocks"
	"github.com/atinyakov/amethyst/internal/storage"
)

func TestBySlug(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mocks.NewMockLinkServiceIface(ctrl)
	h := handler.NewGet(mockService, zap.NewNop())

	tests := []struct {
		name         string
		slug         string
		link         *storage.Link
		err          error
		expectedCode int
		expectedBody string
	}{
		{
			name:         "hit",
			slug:         "abcde",
			link:         &storage.Link{Slug: "abcde", Destination: "http://example.com"},
			expectedCode: http.StatusOK,
			expectedBody: `{"slug":"abcde","url":"http://example.com"}`,
		},
		{
			name:         "miss",
			slug:         "zzzzz",
			err:          storage.ErrNotFound,
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "empty slug",
			slug:         "",
			err:          storage.ErrNotFound,
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "store error",
			slug:         "qwert",
			err:          errors.New("connection reset"),
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService.EXPECT().GetLinkBySlug(gomock.Any(), tt.slug).Return(tt.link, tt.err)

			req := httptest.NewRequest(http.MethodGet, "/api/get?url="+tt.slug, nil)
			rec := httptest.NewRecorder()

			h.BySlug(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, rec.Body.String())
			} else {
				assert.Empty(t, rec.Body.String())
			}
		})
	}
}

func TestPingDB(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mocks.NewMockLinkServiceIface(ctrl)
	h := handler.NewGet(mockService, zap.NewNop())

	mockService.EXPECT().PingContext(gomock.Any()).Return(nil)
	rec := httptest.NewRecorder()
	h.PingDB(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	mockService.EXPECT().PingContext(gomock.Any()).Return(errors.New("down"))
	rec = httptest.NewRecorder()
	h.PingDB(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
