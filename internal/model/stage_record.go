package model

import (
	"encoding/json"
	"time"
)

// Stage tags for per-stage capture records.  Each queue holds at most
// one record per stage; the tag discriminates the payload shape.
const (
	StageReception  = "RECEPTION"
	StageLab        = "LAB"
	StageBloodDraw  = "BLOOD_DRAW"
	StageAccounting = "ACCOUNTING"
	StageDoctor     = "DOCTOR"
)

var knownStages = map[string]bool{
	StageReception:  true,
	StageLab:        true,
	StageBloodDraw:  true,
	StageAccounting: true,
	StageDoctor:     true,
}

// ValidStage reports whether the given tag names a known capture stage.
func ValidStage(stage string) bool { return knownStages[stage] }

// StageRecord is a tagged per-stage capture document keyed 1:1 to a
// queue.  The core treats the payload as opaque JSON; the Stage tag
// tells readers which variant it carries.
//
// Fields:
//  ID        – primary key identifier.
//  QueueID   – owning queue.
//  Stage     – discriminator tag (see constants above).
//  Payload   – stage form data as JSON.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type StageRecord struct {
	ID        uint64          // stage_records.id
	QueueID   uint64          // stage_records.queue_id
	Stage     string          // stage_records.stage
	Payload   json.RawMessage // stage_records.payload
	CreatedAt time.Time       // stage_records.created_at
	UpdatedAt time.Time       // stage_records.updated_at
}
