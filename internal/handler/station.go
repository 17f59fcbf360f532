package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/SohaibShaar/waiting-system-sub001/internal/model"
	"github.com/SohaibShaar/waiting-system-sub001/internal/repository"
	"github.com/SohaibShaar/waiting-system-sub001/internal/service"
)

// StationHandler exposes station configuration plus the per-station
// serving actions (call, start, complete, skip, readmit) and the
// display reads (waiting list, currently served).
type StationHandler struct {
	Stations *repository.StationRepo
	History  *repository.HistoryRepo
	Workflow *service.Workflow
}

// NewStationHandler constructs a StationHandler and panics if any
// dependency is nil.
func NewStationHandler(stations *repository.StationRepo, history *repository.HistoryRepo, workflow *service.Workflow) *StationHandler {
	if stations == nil || history == nil || workflow == nil {
		panic("nil dependency passed to NewStationHandler")
	}
	return &StationHandler{Stations: stations, History: history, Workflow: workflow}
}

// List returns every station in pipeline order, inactive included.
func (h *StationHandler) List(c echo.Context) error {
	out, err := h.Stations.List(c.Request().Context())
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"stations": out})
}

type stationRequest struct {
	Name          string `json:"name"`
	DisplayNumber uint32 `json:"display_number"`
	SortOrder     uint32 `json:"sort_order"`
	IsActive      *bool  `json:"is_active"`
}

// Create adds a station.  A sort_order already in use is a conflict.
func (h *StationHandler) Create(c echo.Context) error {
	var req stationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	st := &model.Station{
		Name:          req.Name,
		DisplayNumber: req.DisplayNumber,
		SortOrder:     req.SortOrder,
		IsActive:      active,
	}
	if err := h.Stations.Create(c.Request().Context(), st); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, st)
}

// Update rewrites a station's mutable attributes.
func (h *StationHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req stationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	st := &model.Station{
		ID:            id,
		Name:          req.Name,
		DisplayNumber: req.DisplayNumber,
		SortOrder:     req.SortOrder,
		IsActive:      active,
	}
	if err := h.Stations.Update(c.Request().Context(), st); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// Delete removes a station unless an ACTIVE queue still points at it.
func (h *StationHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Stations.Delete(c.Request().Context(), id); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Waiting returns the station's line in serving order.
func (h *StationHandler) Waiting(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.Stations.GetByID(c.Request().Context(), id); err != nil {
		return respondErr(c, err)
	}
	out, err := h.History.WaitingList(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"waiting": out})
}

// Current returns the visitor being served at the station, or an empty
// body when the station is idle.
func (h *StationHandler) Current(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.Stations.GetByID(c.Request().Context(), id); err != nil {
		return respondErr(c, err)
	}
	served, err := h.History.CurrentServed(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusOK, echo.Map{"current": nil})
	}
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"current": served})
}

// CallNext calls the best-priority waiting visitor.
func (h *StationHandler) CallNext(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	res, err := h.Workflow.CallNext(c.Request().Context(), id, operatorFrom(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type callRequest struct {
	Number *int64 `json:"number"`
}

// Call calls a specific queue number out of order.
func (h *StationHandler) Call(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req callRequest
	if err := c.Bind(&req); err != nil || req.Number == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "number is required"})
	}
	res, err := h.Workflow.CallSpecific(c.Request().Context(), *req.Number, id, operatorFrom(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type queueRefRequest struct {
	QueueID uint64  `json:"queue_id"`
	Notes   *string `json:"notes"`
}

func bindQueueRef(c echo.Context) (*queueRefRequest, error) {
	var req queueRefRequest
	if err := c.Bind(&req); err != nil || req.QueueID == 0 {
		return nil, c.JSON(http.StatusBadRequest, echo.Map{"error": "queue_id is required"})
	}
	return &req, nil
}

// Start moves the called visitor into service.
func (h *StationHandler) Start(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	req, err := bindQueueRef(c)
	if req == nil {
		return err
	}
	if err := h.Workflow.Start(c.Request().Context(), req.QueueID, id); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Complete finishes the current service; the visitor moves to the next
// station or the whole visit completes.
func (h *StationHandler) Complete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	req, err := bindQueueRef(c)
	if req == nil {
		return err
	}
	res, err := h.Workflow.Complete(c.Request().Context(), req.QueueID, id, req.Notes)
	if err != nil {
		return respondErr(c, err)
	}
	body := echo.Map{"completed": res.Completed}
	if res.NextStation != nil {
		body["next_station_id"] = res.NextStation.ID
		body["next_station_name"] = res.NextStation.Name
		body["next_station_display"] = res.NextStation.DisplayNumber
	}
	return c.JSON(http.StatusOK, body)
}

// Skip dismisses a waiting or called visitor without serving them.
func (h *StationHandler) Skip(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	req, err := bindQueueRef(c)
	if req == nil {
		return err
	}
	if err := h.Workflow.Skip(c.Request().Context(), req.QueueID, id); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Readmit puts a skipped visitor back into the station's line.
func (h *StationHandler) Readmit(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	req, err := bindQueueRef(c)
	if req == nil {
		return err
	}
	if err := h.Workflow.Readmit(c.Request().Context(), req.QueueID, id); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
