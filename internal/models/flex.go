package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString holds a scalar JSON value in its textual form. The backend sends
// coordinates and counts sometimes as numbers and sometimes as strings, so both
// decode to the same text and are parsed explicitly later.
// null, objects and arrays decode to the empty string.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*f = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*f = ""
			return nil
		}
		*f = FlexString(strings.TrimSpace(s))
	case '{', '[', 'n':
		*f = ""
	default:
		*f = FlexString(data)
	}
	return nil
}

// String returns the raw text
func (f FlexString) String() string {
	return string(f)
}

// Float parses the value as a float64
func (f FlexString) Float() (float64, bool) {
	s := strings.TrimSpace(string(f))
	if s == "" {
		return 0, false
	}
	// Some locales send a decimal comma
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FloatOr parses the value as a float64, returning def on failure
func (f FlexString) FloatOr(def float64) float64 {
	if v, ok := f.Float(); ok {
		return v
	}
	return def
}

// Int parses the value as an int. Fractional values are truncated.
func (f FlexString) Int() (int, bool) {
	s := strings.TrimSpace(string(f))
	if s == "" {
		return 0, false
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	v, ok := f.Float()
	if !ok {
		return 0, false
	}
	return int(v), true
}

// IntOr parses the value as an int, returning def on failure
func (f FlexString) IntOr(def int) int {
	if v, ok := f.Int(); ok {
		return v
	}
	return def
}
