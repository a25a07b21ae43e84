package jsonutil

import (
	"encoding/json"
	"testing"
)

func TestFlexibleStringValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"string", `"hello"`, "hello"},
		{"integer", `42`, "42"},
		{"float", `3.5`, "3.5"},
		{"boolean", `true`, "true"},
		{"null", `null`, ""},
		{"empty", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FlexibleStringValue(json.RawMessage(tt.input))
			if got != tt.want {
				t.Errorf("FlexibleStringValue(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFlexibleStringList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"string array", `["neem oil","crop rotation"]`, []string{"neem oil", "crop rotation"}},
		{"mixed array", `["soap spray",2]`, []string{"soap spray", "2"}},
		{"single string", `"neem oil"`, []string{"neem oil"}},
		{"malformed", `not json`, []string{}},
		{"null", `null`, []string{}},
		{"empty array", `[]`, []string{}},
		{"array with nulls", `[null,"traps"]`, []string{"traps"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FlexibleStringList(json.RawMessage(tt.input))
			if got == nil {
				t.Fatal("FlexibleStringList returned nil, want non-nil slice")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("FlexibleStringList(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("element %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
