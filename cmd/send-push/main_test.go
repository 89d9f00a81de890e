package main

import (
	"reflect"
	"testing"
)

func TestSplitRecipients(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"patient-1", []string{"patient-1"}},
		{" patient-1 , ,soignant-2,", []string{"patient-1", "soignant-2"}},
	}
	for _, tt := range tests {
		if got := splitRecipients(tt.raw); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitRecipients(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
