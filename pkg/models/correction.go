package models

import (
	"time"

	"github.com/google/uuid"
)

// Correction is a human-confirmed mapping. Corrections are append-only.
type Correction struct {
	ID                   uuid.UUID     `json:"id"`
	SourceColumn         string        `json:"source_column"`
	NormalizedSourceName string        `json:"normalized_source_name"`
	TargetTable          string        `json:"target_table"`
	TargetColumn         string        `json:"target_column"`
	Status               MappingStatus `json:"status"`
	WasOverride          bool          `json:"was_override"`
	Timestamp            time.Time     `json:"timestamp"`
}

// Target returns the confirmed (table, column) pair.
func (c *Correction) Target() FieldRef {
	return FieldRef{Table: c.TargetTable, Column: c.TargetColumn}
}

// CountsTowardCatalog reports whether the correction may bias catalog scores.
func (c *Correction) CountsTowardCatalog() bool {
	return c.Status.IsCatalogMapping()
}
