package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/amethyst/internal/app/service"
	"github.com/atinyakov/amethyst/internal/storage"
)

type GetHandler struct {
	service service.LinkServiceIface
	logger  *zap.Logger
}

func NewGet(s service.LinkServiceIface, l *zap.Logger) *GetHandler {
	return &GetHandler{
		service: s,
		logger:  l,
	}
}

// BySlug handles GET /api/get?url=<slug>. This is the endpoint a remote
// dispatcher talks to.
func (h *GetHandler) BySlug(res http.ResponseWriter, req *http.Request) {
	slug := req.URL.Query().Get("url")

	link, err := h.service.GetLinkBySlug(req.Context(), slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			res.WriteHeader(http.StatusNotFound)
			return
		}

		h.logger.Error("lookup link", zap.String("slug", slug), zap.Error(err))
		res.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err := writeJSON(res, http.StatusOK, link); err != nil {
		h.logger.Error("write link", zap.Error(err))
	}
}

func (h *GetHandler) PingDB(res http.ResponseWriter, req *http.Request) {
	if err := h.service.PingContext(req.Context()); err != nil {
		h.logger.Error("store ping failed", zap.Error(err))
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	res.WriteHeader(http.StatusOK)
}
