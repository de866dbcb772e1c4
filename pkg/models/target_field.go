package models

import (
	"fmt"
	"strings"
)

// TargetField is one column of the canonical PI20 schema.
type TargetField struct {
	TableName   string   `json:"table_name" yaml:"table_name"`
	ColumnName  string   `json:"column_name" yaml:"column_name"`
	DataType    string   `json:"data_type" yaml:"data_type"`
	Description string   `json:"description" yaml:"description"`
	IsRequired  bool     `json:"is_required" yaml:"is_required"`
	Aliases     []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// Ref returns the (table, column) identity of the field.
func (f TargetField) Ref() FieldRef {
	return FieldRef{Table: f.TableName, Column: f.ColumnName}
}

// FieldRef identifies a target field by table and column.
type FieldRef struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

func (r FieldRef) String() string {
	return fmt.Sprintf("%s.%s", r.Table, r.Column)
}

// IsZero reports whether both parts are blank.
func (r FieldRef) IsZero() bool {
	return strings.TrimSpace(r.Table) == "" && strings.TrimSpace(r.Column) == ""
}

// Less orders refs by table then column.
func (r FieldRef) Less(other FieldRef) bool {
	if r.Table != other.Table {
		return r.Table < other.Table
	}
	return r.Column < other.Column
}

// Folded returns a case-insensitive lookup key for the ref.
func (r FieldRef) Folded() FieldRef {
	return FieldRef{
		Table:  strings.ToLower(strings.TrimSpace(r.Table)),
		Column: strings.ToLower(strings.TrimSpace(r.Column)),
	}
}
