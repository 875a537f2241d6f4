package server

import (
	"errors"
	"net/http"
	"time"

	"hapoints2mqtt/internal/core/domain"
	"hapoints2mqtt/internal/core/registry"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/points", s.PointInventoryHandler)
	e.POST("/devices/:device/reload", s.ReloadDeviceHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) PointInventoryHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetPointInventoryRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "points: FAIL")
	}
	response, ok := res.(domain.GetPointInventoryResponse)
	if !ok || response.HasResponseError() {
		return c.String(http.StatusServiceUnavailable, "points: FAIL")
	}
	return c.JSON(http.StatusOK, response.Points)
}

// ReloadDeviceHandler accepts a full registry file (a JSON array of registry
// rows) and swaps it in for the named device.
func (s *Server) ReloadDeviceHandler(c echo.Context) error {
	device := c.Param("device")

	var rows []registry.RegistryRow
	if err := c.Bind(&rows); err != nil {
		return c.String(http.StatusBadRequest, "reload: invalid registry payload")
	}
	defs, err := registry.ParseRegistry(rows)
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ReloadDeviceRequest{
		Device:      device,
		Definitions: defs,
	}, 15*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "reload: FAIL")
	}
	response, ok := res.(domain.ReloadDeviceResponse)
	if !ok {
		return c.String(http.StatusServiceUnavailable, "reload: FAIL")
	}
	if response.HasResponseError() {
		var regErr *domain.RegistryError
		if errors.As(response.GetResponseError(), &regErr) {
			return c.String(http.StatusBadRequest, response.GetResponseError().Error())
		}
		return c.String(http.StatusNotFound, response.GetResponseError().Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"device": device,
		"points": response.Points,
	})
}
