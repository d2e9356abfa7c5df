package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/phrazzld/powder/internal/model"
	"github.com/phrazzld/powder/internal/registry"
	"github.com/phrazzld/powder/prometheus"
	"go.uber.org/zap"
)

var svc *registry.Service

// Init wires the registry service into the handlers
func Init(service *registry.Service) {
	svc = service
}

// parseID parses a numeric path parameter
func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// writeError maps a registry error to an HTTP response. Every error kind
// carries enough detail for the UI to render a specific message.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	var vErr *registry.ValidationError
	switch {
	case errors.As(err, &vErr):
		log.Warn("validation failed",
			zap.Int("rule", vErr.Rule),
			zap.String("field", vErr.Field),
			zap.String("message", vErr.Message))
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error": vErr.Message,
			"field": vErr.Field,
		})
	case errors.Is(err, registry.ErrNotFound):
		log.Warn("record not found", zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": err.Error(),
		})
	case errors.Is(err, registry.ErrNameConflict):
		prometheus.RecordLinkConflict()
		log.Warn("name conflict", zap.Error(err))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": err.Error(),
		})
	case errors.Is(err, registry.ErrDuplicateName), errors.Is(err, registry.ErrNameInUse):
		log.Warn("name store conflict", zap.Error(err))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": err.Error(),
		})
	case errors.Is(err, registry.ErrNotAnIdea), errors.Is(err, registry.ErrNameNotConsidered):
		log.Warn("promotion rejected", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	default:
		// ErrInvalidTransition lands here on purpose: callers that
		// respect the business rules should never trigger it.
		log.Error("registry operation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Internal error",
		})
	}
}

// refreshNamePoolGauge republishes the name pool gauge after a mutation
func refreshNamePoolGauge(log *zap.Logger) {
	counts, err := svc.NameStatusCounts()
	if err != nil {
		log.Warn("failed to refresh name pool gauge", zap.Error(err))
		return
	}
	for _, status := range []model.NameStatus{
		model.NameStatusAvailable,
		model.NameStatusConsidering,
		model.NameStatusAssigned,
	} {
		prometheus.UpdateNamePool(string(status), float64(counts[status]))
	}
}
