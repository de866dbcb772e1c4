package models

// Suggestion is one ranked candidate target for a source column.
type Suggestion struct {
	SourceColumn string  `json:"source_column"`
	TargetTable  string  `json:"target_table"`
	TargetColumn string  `json:"target_column"`
	DataType     string  `json:"data_type"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning"`
}

// Target returns the suggested (table, column) pair.
func (s *Suggestion) Target() FieldRef {
	return FieldRef{Table: s.TargetTable, Column: s.TargetColumn}
}
