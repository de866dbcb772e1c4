package models

import (
	"fmt"
	"slices"
	"strings"
)

// MappingStatus says how a source column relates to the PI20 model.
type MappingStatus string

const (
	MappingStatusInModel     MappingStatus = "in_model"
	MappingStatusCustomField MappingStatus = "custom_field"
	MappingStatusUnderReview MappingStatus = "under_review"
	MappingStatusSkipped     MappingStatus = "skipped"
)

// ValidMappingStatuses contains all valid mapping status values.
var ValidMappingStatuses = []MappingStatus{
	MappingStatusInModel,
	MappingStatusCustomField,
	MappingStatusUnderReview,
	MappingStatusSkipped,
}

// legacyMappingStatuses maps the IN_MODEL flags used by crosswalk templates.
var legacyMappingStatuses = map[string]MappingStatus{
	"y":   MappingStatusInModel,
	"n":   MappingStatusCustomField,
	"u":   MappingStatusUnderReview,
	"n/a": MappingStatusSkipped,
}

// IsValid checks if the status is one of the known values.
func (s MappingStatus) IsValid() bool {
	return slices.Contains(ValidMappingStatuses, s)
}

// IsCatalogMapping reports whether the status points at a catalog field.
// Only catalog mappings can corroborate a catalog entry.
func (s MappingStatus) IsCatalogMapping() bool {
	return s == MappingStatusInModel
}

// ParseMappingStatus accepts canonical names and the legacy Y/N/U/N/A flags.
// An empty string means in_model.
func ParseMappingStatus(raw string) (MappingStatus, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return MappingStatusInModel, nil
	}
	if s := MappingStatus(v); s.IsValid() {
		return s, nil
	}
	if s, ok := legacyMappingStatuses[v]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unknown mapping status %q", raw)
}
