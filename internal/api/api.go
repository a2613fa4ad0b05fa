// internal/api/api.go
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"

	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/conf"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/datastore"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/errors"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/logging"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/observability"
)

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DS       datastore.Interface
	Settings *conf.Settings

	apiLogger    *slog.Logger
	catalogCache *cache.Cache
	metrics      *observability.Metrics
}

// catalogCacheKey is the single cache key for the SOP catalog snapshot;
// the catalog only changes on import, so a short TTL is enough.
const catalogCacheKey = "catalog-snapshot"

// New creates the API controller and registers all routes under /api/v1.
func New(e *echo.Echo, ds datastore.Interface, settings *conf.Settings, metrics *observability.Metrics) *Controller {
	c := &Controller{
		Echo:         e,
		DS:           ds,
		Settings:     settings,
		apiLogger:    logging.ForService("api"),
		catalogCache: cache.New(1*time.Minute, 5*time.Minute),
		metrics:      metrics,
	}
	if c.apiLogger == nil {
		c.apiLogger = slog.Default()
	}

	c.Group = e.Group("/api/v1")

	c.initPhaseRoutes()
	c.initActivityRoutes()
	c.initScheduleRoutes()
	c.initComplianceRoutes()
	c.initForecastRoutes()
	c.initRecordRoutes()
	c.initOverrideRoutes()

	return c
}

// ErrorResponse represents the JSON error envelope returned to clients.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates an error envelope with a correlation ID for log
// matching.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	resp := &ErrorResponse{
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString()[:8],
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// HandleError logs an error and sends the JSON error envelope.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	errorResp := NewErrorResponse(err, message, code)

	var errorStr string
	if err != nil {
		errorStr = err.Error()
	} else {
		errorStr = message
	}
	c.apiLogger.Error("API Error",
		"correlation_id", errorResp.CorrelationID,
		"message", message,
		"error", errorStr,
		"category", string(errors.CategoryOf(err)),
		"code", code,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"ip", ctx.RealIP(),
	)

	return ctx.JSON(code, errorResp)
}

// handleTypedError maps error categories from lower layers onto HTTP
// status codes.
func (c *Controller) handleTypedError(ctx echo.Context, err error, message string) error {
	code := http.StatusInternalServerError
	switch errors.CategoryOf(err) {
	case errors.CategoryValidation, errors.CategoryCalendar:
		code = http.StatusBadRequest
	case errors.CategoryNotFound:
		code = http.StatusNotFound
	case errors.CategoryConflict:
		code = http.StatusConflict
	}
	return c.HandleError(ctx, err, message, code)
}

// Debug logs debug messages when debug mode is enabled.
func (c *Controller) Debug(msg string, args ...any) {
	if c.Settings.WebServer.Debug {
		c.apiLogger.Debug(msg, args...)
	}
}
