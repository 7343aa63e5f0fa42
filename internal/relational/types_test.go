package relational

import "testing"

func TestIsScalar(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"string", "x", true},
		{"int64", int64(7), true},
		{"float", 1.5, true},
		{"bool", true, true},
		{"nil", nil, false},
		{"slice", []any{1}, false},
		{"map", map[string]any{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsScalar(tt.v); got != tt.want {
				t.Errorf("IsScalar(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}
