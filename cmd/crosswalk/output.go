package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

type table struct {
	w *tabwriter.Writer
}

func (t *table) header(cols ...string) { t.row(cols...) }

func (t *table) row(cols ...string) {
	fmt.Fprintln(t.w, strings.Join(cols, "\t"))
}

// render writes v as indented JSON or as the table built by fill.
func render(c *cli.Context, v any, fill func(t *table)) error {
	return renderTo(c.App.Writer, c.String("output"), v, fill)
}

func renderTo(out io.Writer, format string, v any, fill func(t *table)) error {
	if format == outputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	t := &table{w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
	fill(t)
	return t.w.Flush()
}
