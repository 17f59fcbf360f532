package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/SohaibShaar/waiting-system-sub001/internal/model"
	"github.com/SohaibShaar/waiting-system-sub001/internal/repository"
)

// StageHandler upserts and reads the per-stage capture documents
// attached to a queue.  The payload is an opaque JSON document; only
// the stage tag is validated, the form semantics belong to the clients.
type StageHandler struct {
	Stages *repository.StageRecordRepo
	Queues *repository.QueueRepo
}

// NewStageHandler constructs a StageHandler and panics if any
// dependency is nil.
func NewStageHandler(stages *repository.StageRecordRepo, queues *repository.QueueRepo) *StageHandler {
	if stages == nil || queues == nil {
		panic("nil dependency passed to NewStageHandler")
	}
	return &StageHandler{Stages: stages, Queues: queues}
}

// Put creates or replaces the capture document for one (queue, stage)
// pair.  The body must be a JSON object.
func (h *StageHandler) Put(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	stage := strings.ToUpper(c.Param("stage"))
	if !model.ValidStage(stage) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown stage"})
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return respondErr(c, err)
	}
	if !json.Valid(body) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "body must be valid JSON"})
	}

	ctx := c.Request().Context()
	if _, err := h.Queues.GetByID(ctx, id); err != nil {
		return respondErr(c, err)
	}

	rec := &model.StageRecord{QueueID: id, Stage: stage, Payload: json.RawMessage(body)}
	_, err = h.Stages.Get(ctx, id, stage)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		err = h.Stages.Create(ctx, rec)
	case err == nil:
		err = h.Stages.Update(ctx, rec)
	}
	if err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Get returns the capture document for one (queue, stage) pair.
func (h *StageHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	stage := strings.ToUpper(c.Param("stage"))
	if !model.ValidStage(stage) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown stage"})
	}
	rec, err := h.Stages.Get(c.Request().Context(), id, stage)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}
