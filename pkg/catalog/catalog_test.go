package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/apperrors"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
)

func sampleFields() []models.TargetField {
	return []models.TargetField{
		{TableName: "provider", ColumnName: "rendering_npi", Description: "National provider identifier", IsRequired: true},
		{TableName: "member", ColumnName: "member_id", Description: "Unique member identifier", IsRequired: true, Aliases: []string{"mbr_id"}},
		{TableName: "member", ColumnName: "first_name", Description: "Given name"},
		{TableName: "claim", ColumnName: "claim_number", IsRequired: true},
	}
}

func TestNew_SortsAndIndexes(t *testing.T) {
	c, err := New(sampleFields())
	require.NoError(t, err)

	var refs []string
	for _, f := range c.Fields() {
		refs = append(refs, f.Ref().String())
	}
	assert.Equal(t, []string{"claim.claim_number", "member.first_name", "member.member_id", "provider.rendering_npi"}, refs)
	assert.Equal(t, 4, c.Len())

	f, ok := c.Lookup("MEMBER", "Member_ID")
	require.True(t, ok)
	assert.Equal(t, "member_id", f.ColumnName)

	_, ok = c.Lookup("member", "missing")
	assert.False(t, ok)
}

func TestNew_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		fields []models.TargetField
	}{
		{"duplicate pair", []models.TargetField{
			{TableName: "member", ColumnName: "member_id"},
			{TableName: "MEMBER", ColumnName: "MEMBER_ID"},
		}},
		{"blank column", []models.TargetField{{TableName: "member", ColumnName: "  "}}},
		{"blank table", []models.TargetField{{TableName: "", ColumnName: "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.fields)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrCatalogUnavailable))
		})
	}
}

func TestNew_EmptyIsAllowed(t *testing.T) {
	c, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Tables())
}

func TestSearch(t *testing.T) {
	c, err := New(sampleFields())
	require.NoError(t, err)

	tests := []struct {
		term  string
		limit int
		want  []string
	}{
		{"", 0, []string{"claim_number", "first_name", "member_id", "rendering_npi"}},
		{"", 2, []string{"claim_number", "first_name"}},
		{"MEMBER", 0, []string{"first_name", "member_id"}},
		{"identifier", 0, []string{"member_id", "rendering_npi"}},
		{"mbr", 0, []string{"member_id"}},
		{"nothing-matches", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			var got []string
			for _, f := range c.Search(tt.term, tt.limit) {
				got = append(got, f.ColumnName)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTables(t *testing.T) {
	c, err := New(sampleFields())
	require.NoError(t, err)

	assert.Equal(t, []TableSummary{
		{Name: "claim", FieldCount: 1, RequiredCount: 1},
		{Name: "member", FieldCount: 2, RequiredCount: 1},
		{Name: "provider", FieldCount: 1, RequiredCount: 1},
	}, c.Tables())
}

type failingLoader struct{}

func (failingLoader) Load(context.Context) ([]models.TargetField, error) {
	return nil, errors.New("connection refused")
}
func (failingLoader) Source() string { return "failing" }

func TestLoad(t *testing.T) {
	ctx := context.Background()

	c, err := Load(ctx, StaticLoader(sampleFields()))
	require.NoError(t, err)
	assert.Equal(t, 4, c.Len())

	_, err = Load(ctx, StaticLoader(nil))
	require.ErrorIs(t, err, apperrors.ErrCatalogUnavailable)

	_, err = Load(ctx, failingLoader{})
	require.ErrorIs(t, err, apperrors.ErrCatalogUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestParseYAML(t *testing.T) {
	doc := `
tables:
  - name: claim
    fields:
      - column: claim_number
        type: VARCHAR
        description: Payer-assigned claim number
        required: true
        aliases: [clm_no, claim_id]
      - column: paid_amount
        type: DECIMAL
`
	fields, err := ParseYAML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, models.TargetField{
		TableName:   "claim",
		ColumnName:  "claim_number",
		DataType:    "VARCHAR",
		Description: "Payer-assigned claim number",
		IsRequired:  true,
		Aliases:     []string{"clm_no", "claim_id"},
	}, fields[0])
	assert.False(t, fields[1].IsRequired)

	_, err = ParseYAML(strings.NewReader("tables:\n  - name: x\n    bogus: 1\n"))
	require.Error(t, err)

	fields, err = ParseYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestParseCSV(t *testing.T) {
	data := "table_name;Column_Name;COLUMN_TYPE;COLUMN_COMMENT;IS_MANDATORY;ALIASES\n" +
		"member;member_id;VARCHAR;Unique member id;Y;mbr_id|subscriber_id\n" +
		";;;;;\n" +
		"member;first_name;VARCHAR;;N;\n"

	fields, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, []string{"mbr_id", "subscriber_id"}, fields[0].Aliases)
	assert.True(t, fields[0].IsRequired)
	assert.False(t, fields[1].IsRequired)
	assert.Nil(t, fields[1].Aliases)

	_, err = ParseCSV(strings.NewReader("TABLE_NAME,TYPE\nmember,x\n"))
	require.Error(t, err)
}

func TestLoaders_ShippedData(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join("..", "..", "data")
	if _, err := os.Stat(root); err != nil {
		t.Skip("data directory not available")
	}

	y, err := Load(ctx, &YAMLLoader{Path: filepath.Join(root, "pi20_catalog.yaml")})
	require.NoError(t, err)
	_, ok := y.Lookup("provider", "rendering_npi")
	assert.True(t, ok)

	c, err := Load(ctx, &CSVLoader{Path: filepath.Join(root, "pi20_data_model.csv")})
	require.NoError(t, err)
	assert.Equal(t, 5, c.Len())
	f, ok := c.Lookup("claim", "paid_amount")
	require.True(t, ok)
	assert.Equal(t, "DECIMAL(12,2)", f.DataType)

	_, err = Load(ctx, &YAMLLoader{Path: filepath.Join(root, "missing.yaml")})
	assert.ErrorIs(t, err, apperrors.ErrCatalogUnavailable)
}
