package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"AMDScope/internal/domain/models"
	domrepo "AMDScope/internal/domain/repository"
	"AMDScope/internal/service/ratelimit"
	"AMDScope/internal/usecase"
	xhttp "AMDScope/pkg/http"
	xlogger "AMDScope/pkg/logger"
)

const healthTimeout = 2 * time.Second

// AMDEchoHandler serves the regime endpoints.
type AMDEchoHandler struct {
	logger *xlogger.Logger
	uc     *usecase.AMDUseCase
	rl     *ratelimit.KeyedLimiter
	checks map[string]domrepo.HealthChecker
}

// NewAMDEchoHandler creates the handler. A nil limiter disables per-client rate limiting.
func NewAMDEchoHandler(logger *xlogger.Logger, uc *usecase.AMDUseCase, rl *ratelimit.KeyedLimiter) *AMDEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &AMDEchoHandler{logger: logger, uc: uc, rl: rl, checks: map[string]domrepo.HealthChecker{}}
}

// AddHealthCheck registers a dependency reported by /healthz.
func (h *AMDEchoHandler) AddHealthCheck(name string, hc domrepo.HealthChecker) {
	if hc != nil {
		h.checks[name] = hc
	}
}

func (h *AMDEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api", h.rateLimit)
	g.GET("/raw", h.Raw)
	g.GET("/indicators", h.Indicators)
	g.GET("/cycles", h.Cycles)
	g.GET("/summary", h.Summary)
}

func (h *AMDEchoHandler) Raw(c echo.Context) error {
	req := &models.BarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.Raw(c.Request().Context(), usecase.Params{Symbol: req.Symbol, Period: req.Period, Limit: req.Limit})
	if err != nil {
		return h.fail(c, "raw", err)
	}
	return xhttp.SuccessResponse(c, NewRawResponse(res))
}

func (h *AMDEchoHandler) Indicators(c echo.Context) error {
	req := &models.BarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.Indicators(c.Request().Context(), usecase.Params{Symbol: req.Symbol, Period: req.Period, Limit: req.Limit})
	if err != nil {
		return h.fail(c, "indicators", err)
	}
	return xhttp.SuccessResponse(c, NewIndicatorsResponse(res))
}

func (h *AMDEchoHandler) Cycles(c echo.Context) error {
	req := &models.CyclesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.Cycles(c.Request().Context(), usecase.Params{Symbol: req.Symbol, Period: req.Period})
	if err != nil {
		return h.fail(c, "cycles", err)
	}
	return xhttp.SuccessResponse(c, NewCyclesResponse(res))
}

func (h *AMDEchoHandler) Summary(c echo.Context) error {
	req := &models.SummaryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.Summary(c.Request().Context(), usecase.Params{Symbol: req.Symbol, Period: req.Period})
	if err != nil {
		return h.fail(c, "summary", err)
	}
	return xhttp.SuccessResponse(c, NewSummaryResponse(res))
}

// Health reports ok when every registered dependency answers.
func (h *AMDEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	status := map[string]string{}
	code := http.StatusOK
	for name, hc := range h.checks {
		if err := hc.Health(ctx); err != nil {
			status[name] = err.Error()
			code = http.StatusServiceUnavailable
			h.logger.Warn("health check failed", xlogger.String("dependency", name), xlogger.Error(err))
			continue
		}
		status[name] = "ok"
	}
	return xhttp.DataResponse(c, code, status)
}

func (h *AMDEchoHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.rl != nil && !h.rl.Allow(c.RealIP()) {
			h.logger.Warn("rate limited", xlogger.String("remote", c.RealIP()), xlogger.String("path", c.Path()))
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many requests"))
		}
		return next(c)
	}
}

func (h *AMDEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := toAppError(err)
	fields := []xlogger.Field{xlogger.String("endpoint", endpoint), xlogger.Error(err)}
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error("amd usecase error", fields...)
	} else {
		h.logger.Warn("amd usecase rejected", fields...)
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func toAppError(err error) *xhttp.AppError {
	var ib *models.InvalidBarError
	switch {
	case errors.Is(err, models.ErrInvalidPeriod):
		return xhttp.NewAppError("ERR_INVALID_PERIOD", "period", err.Error(), http.StatusBadRequest).WithError(err)
	case errors.As(err, &ib):
		return xhttp.UnprocessableError("ERR_INVALID_BAR", err.Error()).
			WithParam("index", ib.Index).
			WithParam("time", ts(ib.Time)).
			WithError(err)
	case errors.Is(err, models.ErrDataUnavailable):
		return xhttp.ServiceUnavailableError("ERR_DATA_UNAVAILABLE", err.Error()).WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
