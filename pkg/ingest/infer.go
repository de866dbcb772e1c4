package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Inferred column types.
const (
	TypeBoolean = "boolean"
	TypeNumber  = "number"
	TypeDate    = "date"
	TypeString  = "string"
)

var booleanValues = map[string]struct{}{
	"true": {}, "false": {}, "yes": {}, "no": {},
	"1": {}, "0": {}, "t": {}, "f": {}, "y": {}, "n": {},
}

var dateShape = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{4}|\d{2}-\d{2}-\d{4})`)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006",
	"01/02/2006",
	"01-02-2006",
}

// InferType classifies non-null values as boolean, number, date or string.
// The first 20 values decide booleans; every value must agree for the rest.
func InferType(values []string) string {
	if len(values) == 0 {
		return TypeString
	}

	head := values
	if len(head) > 20 {
		head = head[:20]
	}
	if allMatch(head, isBoolean) {
		return TypeBoolean
	}
	if allMatch(values, isNumber) {
		return TypeNumber
	}
	if dateShape.MatchString(values[0]) && allMatch(values, isDate) {
		return TypeDate
	}
	return TypeString
}

func allMatch(values []string, fn func(string) bool) bool {
	for _, v := range values {
		if !fn(v) {
			return false
		}
	}
	return true
}

func isBoolean(v string) bool {
	_, ok := booleanValues[strings.ToLower(v)]
	return ok
}

func isNumber(v string) bool {
	_, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	return err == nil
}

func isDate(v string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}
