package service_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atinyakov/amethyst/internal/app/service"
	"github.com/atinyakov/amethyst/internal/storage"
)

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{service.ErrInvalidURL, service.ReasonInvalidURL},
		{errors.Join(service.ErrInvalidURL, errors.New("http_url")), service.ReasonInvalidURL},
		{storage.ErrSlugTaken, service.ReasonSlugTaken},
		{service.ErrKeyspaceExhausted, service.ReasonKeyspaceExhausted},
		{fmt.Errorf("insert generated slug: %w", errors.New("connection reset")), service.ReasonStorageUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, service.Reason(tt.err))
		})
	}
}
