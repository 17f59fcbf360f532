package model

import "time"

// Person is the identity record behind one or more visits.  People are
// deduplicated at intake by phone or national id, so a single Person row
// may be referenced by many historical queues.
//
// Fields:
//  ID         – primary key identifier.
//  FullName   – display name captured at reception.
//  Phone      – optional phone number used for dedupe.
//  NationalID – optional national id used for dedupe.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Person struct {
	ID         uint64    // persons.id
	FullName   string    // persons.full_name
	Phone      *string   // persons.phone (nullable)
	NationalID *string   // persons.national_id (nullable)
	CreatedAt  time.Time // persons.created_at
	UpdatedAt  time.Time // persons.updated_at
}
