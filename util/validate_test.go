package util

import (
	"strings"
	"testing"
)

func TestValidateNonEmpty(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   string
		wantErr bool
	}{
		{"valid", "name", "checkout-flow", false},
		{"empty", "name", "", true},
		{"whitespace only", "name", "   ", true},
		{"with whitespace padding", "queues.name", " intake ", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateNonEmpty(tc.field, tc.value)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateNonEmpty(%q, %q) error = %v, wantErr %v", tc.field, tc.value, err, tc.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tc.field) {
				t.Errorf("error should contain field name %q, got %q", tc.field, err.Error())
			}
		})
	}
}
