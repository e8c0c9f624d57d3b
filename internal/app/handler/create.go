package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/amethyst/internal/app/service"
	"github.com/atinyakov/amethyst/internal/metrics"
	"github.com/atinyakov/amethyst/internal/middleware"
	"github.com/atinyakov/amethyst/internal/models"
)

type CreateHandler struct {
	baseURL  string
	service  service.LinkServiceIface
	metrics  *metrics.Metrics
	logger   *zap.Logger
	detailed bool
}

// NewCreate builds the POST /api/create handler. With detailed set, failures
// carry a distinct status and {"error": reason}; otherwise every failure is
// a bare 403.
func NewCreate(baseURL string, s service.LinkServiceIface, m *metrics.Metrics, l *zap.Logger, detailed bool) *CreateHandler {
	return &CreateHandler{
		baseURL:  baseURL,
		service:  s,
		metrics:  m,
		logger:   l,
		detailed: detailed,
	}
}

// Create handles POST /api/create.
func (h *CreateHandler) Create(res http.ResponseWriter, req *http.Request) {
	var request models.CreateRequest

	if err := decodeJSONBody(res, req, &request); err != nil {
		status := http.StatusBadRequest
		var mr *malformedRequest
		if errors.As(err, &mr) {
			status = mr.status
		}
		h.fail(res, req, service.ReasonMalformedRequest, status, err)
		return
	}

	link, err := h.service.CreateLink(req.Context(), request.URL, request.Path)
	if err != nil {
		reason := service.Reason(err)
		h.fail(res, req, reason, statusFor(reason), err)
		return
	}

	h.metrics.LinksCreated.Inc()
	h.logger.Info("link created",
		zap.String("request_id", middleware.RequestIDFrom(req.Context())),
		zap.String("slug", link.Slug),
	)

	if err := writeJSON(res, http.StatusAccepted, models.CreateResponse{URL: h.baseURL + "/" + link.Slug}); err != nil {
		h.logger.Error("write create response", zap.Error(err))
	}
}

func (h *CreateHandler) fail(res http.ResponseWriter, req *http.Request, reason string, status int, err error) {
	h.metrics.CreateFailures.WithLabelValues(reason).Inc()
	h.logger.Error("create link failed",
		zap.String("request_id", middleware.RequestIDFrom(req.Context())),
		zap.String("reason", reason),
		zap.Error(err),
	)

	if !h.detailed {
		res.WriteHeader(http.StatusForbidden)
		return
	}

	if werr := writeJSON(res, status, models.ErrorResponse{Error: reason}); werr != nil {
		h.logger.Error("write error response", zap.Error(werr))
	}
}

func statusFor(reason string) int {
	switch reason {
	case service.ReasonInvalidURL:
		return http.StatusBadRequest
	case service.ReasonSlugTaken:
		return http.StatusConflict
	case service.ReasonKeyspaceExhausted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
