package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/SohaibShaar/waiting-system-sub001/internal/model"
	"github.com/SohaibShaar/waiting-system-sub001/internal/repository"
	"github.com/SohaibShaar/waiting-system-sub001/internal/service"
)

// ArchiveHandler exposes the cold-storage reads and the archive run.
type ArchiveHandler struct {
	Archive  *service.Archive
	Mirror   *repository.ArchiveRepo
	Settings *repository.SettingRepo
}

// NewArchiveHandler constructs an ArchiveHandler and panics if any
// dependency is nil.
func NewArchiveHandler(archive *service.Archive, mirror *repository.ArchiveRepo, settings *repository.SettingRepo) *ArchiveHandler {
	if archive == nil || mirror == nil || settings == nil {
		panic("nil dependency passed to NewArchiveHandler")
	}
	return &ArchiveHandler{Archive: archive, Mirror: mirror, Settings: settings}
}

// List returns archived queues filtered by date range, status and a
// free-text search over number, name, phone and national id.
func (h *ArchiveHandler) List(c echo.Context) error {
	var f repository.ArchiveFilter
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from"})
		}
		f.From = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to"})
		}
		f.To = &t
	}
	f.Status = c.QueryParam("status")
	f.Search = c.QueryParam("search")
	if v := c.QueryParam("limit"); v != "" {
		f.Limit, _ = strconv.Atoi(v)
	}
	if v := c.QueryParam("offset"); v != "" {
		f.Offset, _ = strconv.Atoi(v)
	}

	items, total, err := h.Mirror.List(c.Request().Context(), f)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total})
}

// Stats returns archive totals by status, the average visit duration
// and the time of the last archive run.
func (h *ArchiveHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	stats, err := h.Mirror.Stats(ctx)
	if err != nil {
		return respondErr(c, err)
	}
	last, err := h.Settings.Get(ctx, model.SettingLastArchiveDate)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return respondErr(c, err)
	}
	body := echo.Map{
		"total":          stats.Total,
		"by_status":      stats.ByStatus,
		"avg_total_secs": stats.AvgTotalSec,
	}
	if last != "" {
		body["last_archive_date"] = last
	}
	return c.JSON(http.StatusOK, body)
}

// Run archives every terminal queue and resets the number sequence.
func (h *ArchiveHandler) Run(c echo.Context) error {
	n, err := h.Archive.Run(c.Request().Context())
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"archived": n})
}
