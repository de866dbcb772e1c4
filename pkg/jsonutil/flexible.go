package jsonutil

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling clients
// that send numbers or booleans where a string is expected. Numbers keep their
// literal text so identifiers like 1234567893 are not reformatted. Returns
// empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal json.Number
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return numVal.String()
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	// Fallback: return raw string representation
	return string(raw)
}

// FlexibleStrings is a string slice that accepts mixed scalar elements, as
// spreadsheet exports often emit sample values as numbers. A single scalar
// is accepted as a one-element list. Null elements become empty strings.
type FlexibleStrings []string

func (f *FlexibleStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = nil
		return nil
	}
	if data[0] != '[' {
		*f = FlexibleStrings{FlexibleStringValue(data)}
		return nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("expected a list of values: %w", err)
	}
	out := make(FlexibleStrings, len(raws))
	for i, r := range raws {
		out[i] = FlexibleStringValue(r)
	}
	*f = out
	return nil
}
