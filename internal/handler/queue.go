package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/SohaibShaar/waiting-system-sub001/internal/repository"
	"github.com/SohaibShaar/waiting-system-sub001/internal/service"
)

// QueueHandler exposes the visit lifecycle: intake, listing, priority
// changes, cancellation, reinstatement and forced completion.
type QueueHandler struct {
	Registry *service.Registry
	Queues   *repository.QueueRepo
}

// NewQueueHandler constructs a QueueHandler and panics if any
// dependency is nil.
func NewQueueHandler(registry *service.Registry, queues *repository.QueueRepo) *QueueHandler {
	if registry == nil || queues == nil {
		panic("nil dependency passed to NewQueueHandler")
	}
	return &QueueHandler{Registry: registry, Queues: queues}
}

type openRequest struct {
	FullName   string  `json:"full_name"`
	Phone      *string `json:"phone"`
	NationalID *string `json:"national_id"`
	Priority   int     `json:"priority"`
	Notes      *string `json:"notes"`
}

// Open registers a new visit and returns the issued number plus the
// first station the visitor should head to.
func (h *QueueHandler) Open(c echo.Context) error {
	var req openRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name is required"})
	}
	res, err := h.Registry.Open(c.Request().Context(), service.OpenRequest{
		FullName:   req.FullName,
		Phone:      req.Phone,
		NationalID: req.NationalID,
		Priority:   req.Priority,
		Notes:      req.Notes,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"queue_id":        res.Queue.ID,
		"number":          res.Number,
		"station_id":      res.Station.ID,
		"station_name":    res.Station.Name,
		"station_display": res.Station.DisplayNumber,
	})
}

// List returns all ACTIVE queues with person and station details.
func (h *QueueHandler) List(c echo.Context) error {
	out, err := h.Queues.ListActive(c.Request().Context())
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"queues": out})
}

// Get returns one queue with person and station details.
func (h *QueueHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.Queues.GetDetail(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

type priorityRequest struct {
	Priority *int `json:"priority"`
}

// ChangePriority updates an ACTIVE queue's serving priority.
func (h *QueueHandler) ChangePriority(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req priorityRequest
	if err := c.Bind(&req); err != nil || req.Priority == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "priority is required"})
	}
	if err := h.Registry.ChangePriority(c.Request().Context(), id, *req.Priority); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type cancelRequest struct {
	Reason *string `json:"reason"`
}

// Cancel marks an ACTIVE queue CANCELLED.
func (h *QueueHandler) Cancel(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req cancelRequest
	_ = c.Bind(&req) // body optional
	if err := h.Registry.Cancel(c.Request().Context(), id, req.Reason); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Reinstate returns a CANCELLED queue to the line it left.
func (h *QueueHandler) Reinstate(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Registry.Reinstate(c.Request().Context(), id); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Complete force-completes an ACTIVE queue without it passing the
// remaining stations.
func (h *QueueHandler) Complete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Registry.CompleteCase(c.Request().Context(), id); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
