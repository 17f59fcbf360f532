package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/SohaibShaar/waiting-system-sub001/internal/model"
	"github.com/SohaibShaar/waiting-system-sub001/internal/notifier"
	"github.com/SohaibShaar/waiting-system-sub001/internal/repository"
)

// SettingsHandler reads and writes the display settings.  Currently
// only the favorite price shown on the waiting-room screens.
type SettingsHandler struct {
	Settings *repository.SettingRepo
	Events   notifier.Notifier
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(settings *repository.SettingRepo, events notifier.Notifier) *SettingsHandler {
	if settings == nil {
		panic("nil dependency passed to NewSettingsHandler")
	}
	if events == nil {
		events = notifier.Nop{}
	}
	return &SettingsHandler{Settings: settings, Events: events}
}

type favoritePriceRequest struct {
	Price string `json:"price"`
}

// PutFavoritePrice stores the price string and notifies the screens.
func (h *SettingsHandler) PutFavoritePrice(c echo.Context) error {
	var req favoritePriceRequest
	if err := c.Bind(&req); err != nil || req.Price == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price is required"})
	}
	if err := h.Settings.Upsert(c.Request().Context(), model.SettingFavoritePrice, req.Price); err != nil {
		return respondErr(c, err)
	}
	h.Events.Publish(c.Request().Context(), notifier.Event{Kind: notifier.EventFavoritePrice})
	return c.NoContent(http.StatusNoContent)
}

// GetFavoritePrice returns the stored price, empty when never set.
func (h *SettingsHandler) GetFavoritePrice(c echo.Context) error {
	v, err := h.Settings.Get(c.Request().Context(), model.SettingFavoritePrice)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusOK, echo.Map{"price": ""})
	}
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"price": v})
}
