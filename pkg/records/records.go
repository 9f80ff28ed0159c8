// Package records defines the row representation shared by the parser,
// transformers, and storage layers.
package records

// Record is one logical row keyed by canonical column name. Values are raw
// strings as parsed from the source, or nil when the source field was absent
// (empty string or a NULL token).
type Record map[string]any

// String returns the value for col as a string. Nil and missing values return
// the empty string.
func (r Record) String(col string) string {
	if v, ok := r[col]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
