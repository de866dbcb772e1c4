// Package catalog holds the PI20 target schema the mapper ranks against.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/apperrors"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
)

// Catalog is an immutable, sorted set of target fields.
type Catalog struct {
	fields []models.TargetField
	index  map[models.FieldRef]int
}

// TableSummary describes one target table.
type TableSummary struct {
	Name          string `json:"table_name"`
	FieldCount    int    `json:"field_count"`
	RequiredCount int    `json:"required_count"`
}

// New validates fields and returns a catalog ordered by (table, column).
// Blank names and duplicate (table, column) pairs, compared
// case-insensitively, are rejected with ErrCatalogUnavailable. An empty field
// list is allowed.
func New(fields []models.TargetField) (*Catalog, error) {
	c := &Catalog{
		fields: make([]models.TargetField, 0, len(fields)),
		index:  make(map[models.FieldRef]int, len(fields)),
	}
	for _, f := range fields {
		f.TableName = strings.TrimSpace(f.TableName)
		f.ColumnName = strings.TrimSpace(f.ColumnName)
		if f.TableName == "" || f.ColumnName == "" {
			return nil, fmt.Errorf("%w: field with blank table or column name", apperrors.ErrCatalogUnavailable)
		}
		key := f.Ref().Folded()
		if _, dup := c.index[key]; dup {
			return nil, fmt.Errorf("%w: duplicate field %s", apperrors.ErrCatalogUnavailable, f.Ref())
		}
		c.index[key] = -1
		c.fields = append(c.fields, f)
	}

	sort.Slice(c.fields, func(i, j int) bool {
		return c.fields[i].Ref().Less(c.fields[j].Ref())
	})
	for i, f := range c.fields {
		c.index[f.Ref().Folded()] = i
	}
	return c, nil
}

// Fields returns a copy of all fields in (table, column) order.
func (c *Catalog) Fields() []models.TargetField {
	out := make([]models.TargetField, len(c.fields))
	copy(out, c.fields)
	return out
}

// Len is the number of fields.
func (c *Catalog) Len() int { return len(c.fields) }

// Lookup finds a field by table and column, ignoring case.
func (c *Catalog) Lookup(table, column string) (models.TargetField, bool) {
	i, ok := c.index[models.FieldRef{Table: table, Column: column}.Folded()]
	if !ok {
		return models.TargetField{}, false
	}
	return c.fields[i], true
}

// Search returns fields whose table, column, description or aliases contain
// term, ignoring case, in catalog order. A blank term matches everything.
// limit <= 0 means no limit.
func (c *Catalog) Search(term string, limit int) []models.TargetField {
	term = strings.ToLower(strings.TrimSpace(term))
	var out []models.TargetField
	for _, f := range c.fields {
		if term != "" && !matches(f, term) {
			continue
		}
		out = append(out, f)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Tables summarises each table in name order.
func (c *Catalog) Tables() []TableSummary {
	var out []TableSummary
	for _, f := range c.fields {
		if len(out) == 0 || out[len(out)-1].Name != f.TableName {
			out = append(out, TableSummary{Name: f.TableName})
		}
		t := &out[len(out)-1]
		t.FieldCount++
		if f.IsRequired {
			t.RequiredCount++
		}
	}
	return out
}

func matches(f models.TargetField, term string) bool {
	if strings.Contains(strings.ToLower(f.TableName), term) ||
		strings.Contains(strings.ToLower(f.ColumnName), term) ||
		strings.Contains(strings.ToLower(f.Description), term) {
		return true
	}
	for _, a := range f.Aliases {
		if strings.Contains(strings.ToLower(a), term) {
			return true
		}
	}
	return false
}
