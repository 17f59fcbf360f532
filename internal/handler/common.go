package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/SohaibShaar/waiting-system-sub001/internal/repository"
)

// paramID parses a numeric path parameter.  Non-numeric values are a
// client error, not a lookup miss.
func paramID(c echo.Context, name string) (uint64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// respondErr maps the repository sentinels onto HTTP statuses.  Unknown
// errors become a 500 with a generic body; the real cause goes to the
// request logger.
func respondErr(c echo.Context, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrNothingWaiting):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "nothing waiting"})
	case errors.Is(err, repository.ErrStationBusy):
		return c.JSON(http.StatusConflict, echo.Map{"error": "station busy"})
	case errors.Is(err, repository.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid state"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	case errors.Is(err, repository.ErrNoServiceStation):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "no service station configured"})
	}
	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// operatorFrom returns the authenticated operator name, or nil on
// public routes.
func operatorFrom(c echo.Context) *string {
	if v := c.Get("operator"); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return &s
		}
	}
	return nil
}
