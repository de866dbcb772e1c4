package catalog

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
)

// yamlDocument is the on-disk catalog layout:
//
//	tables:
//	  - name: claim
//	    fields:
//	      - column: claim_number
//	        type: VARCHAR
//	        description: Payer-assigned claim number
//	        required: true
//	        aliases: [clm_no, claim_id]
type yamlDocument struct {
	Tables []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Fields      []struct {
			Column      string   `yaml:"column"`
			Type        string   `yaml:"type"`
			Description string   `yaml:"description"`
			Required    bool     `yaml:"required"`
			Aliases     []string `yaml:"aliases"`
		} `yaml:"fields"`
	} `yaml:"tables"`
}

// YAMLLoader reads a catalog document from a file.
type YAMLLoader struct {
	Path string
}

func (l *YAMLLoader) Source() string { return "yaml:" + l.Path }

func (l *YAMLLoader) Load(_ context.Context) ([]models.TargetField, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return ParseYAML(f)
}

// ParseYAML decodes a catalog document.
func ParseYAML(r io.Reader) ([]models.TargetField, error) {
	var doc yamlDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode catalog yaml: %w", err)
	}

	var fields []models.TargetField
	for _, t := range doc.Tables {
		for _, f := range t.Fields {
			fields = append(fields, models.TargetField{
				TableName:   t.Name,
				ColumnName:  f.Column,
				DataType:    f.Type,
				Description: f.Description,
				IsRequired:  f.Required,
				Aliases:     f.Aliases,
			})
		}
	}
	return fields, nil
}
