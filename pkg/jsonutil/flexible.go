// Package jsonutil tolerantly decodes JSON values whose types are not
// guaranteed, such as model output and client-supplied form fields.
package jsonutil

import (
	"encoding/json"
	"fmt"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases
// where the producer emits numbers or booleans instead of strings. Returns
// empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	return string(raw)
}

// FlexibleStringList converts a json.RawMessage to a list of strings. It
// accepts an array of any scalar types or a single string. Null, empty and
// malformed input all yield an empty (non-nil) slice rather than an error.
func FlexibleStringList(raw json.RawMessage) []string {
	out := make([]string, 0)
	if len(raw) == 0 || string(raw) == "null" {
		return out
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err == nil {
		for _, e := range elems {
			if s := FlexibleStringValue(e); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return append(out, single)
	}

	return out
}
