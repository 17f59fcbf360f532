package model

import "time"

// Station is an ordered service point a queue passes through.  The
// lowest-order active station is the intake point; routing between
// stations follows SortOrder strictly.  Inactive stations are invisible
// to routing.
//
// Fields:
//  ID            – primary key identifier.
//  Name          – human readable station name (e.g. "Lab").
//  DisplayNumber – public number shown on displays and announcements.
//  SortOrder     – unique ordering key used for routing.
//  IsActive      – whether the station participates in routing.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Station struct {
	ID            uint64    // stations.id
	Name          string    // stations.name
	DisplayNumber uint32    // stations.display_number
	SortOrder     uint32    // stations.sort_order
	IsActive      bool      // stations.is_active
	CreatedAt     time.Time // stations.created_at
	UpdatedAt     time.Time // stations.updated_at
}
