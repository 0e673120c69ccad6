package datastore

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
)

// StringSet is a set-valued column stored as a JSON array. A nil StringSet
// means "unknown", which is distinct from an empty set for matching purposes
// but both impose no positive criterion.
//
// Malformed stored data scans to the empty set instead of erroring: habit
// data written by older schema revisions must never make a selection fail.
type StringSet []string

// Has reports whether v is in the set.
func (s StringSet) Has(v string) bool {
	return slices.Contains(s, v)
}

// Intersects reports whether the set shares at least one element with other.
func (s StringSet) Intersects(other []string) bool {
	for _, v := range other {
		if slices.Contains(s, v) {
			return true
		}
	}
	return false
}

// Normalize returns a copy restricted to the given vocabulary, dropping
// unknown and duplicate values.
func (s StringSet) Normalize(vocabulary []string) StringSet {
	if s == nil {
		return nil
	}
	out := make(StringSet, 0, len(s))
	for _, v := range s {
		if slices.Contains(vocabulary, v) && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// Scan implements sql.Scanner.
func (s *StringSet) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		// wrong shape, treat as empty
		*s = StringSet{}
		return nil
	}

	if len(raw) == 0 {
		*s = nil
		return nil
	}

	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		// malformed habit data is treated as an empty set, never an error
		*s = StringSet{}
		return nil
	}
	*s = values
	return nil
}

// Value implements driver.Valuer.
func (s StringSet) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	data, err := json.Marshal([]string(s))
	if err != nil {
		return nil, fmt.Errorf("marshaling string set: %w", err)
	}
	return string(data), nil
}

// GormDataType tells GORM to store the set as text.
func (StringSet) GormDataType() string {
	return "text"
}
