package main

import (
	"testing"
)

func TestParseThresholds(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []float64
		wantErr bool
	}{
		{"single", "0.5", []float64{0.5}, false},
		{"several", "0.3,0.5,0.7", []float64{0.3, 0.5, 0.7}, false},
		{"spaces", " 0.3 , 0.7 ", []float64{0.3, 0.7}, false},
		{"bounds", "0,1", []float64{0, 1}, false},
		{"trailing comma", "0.5,", []float64{0.5}, false},
		{"empty", "", nil, true},
		{"not a number", "0.5,abc", nil, true},
		{"above one", "1.5", nil, true},
		{"negative", "-0.1", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseThresholds(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseThresholds(%q): expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseThresholds(%q): %v", tt.input, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseThresholds(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("parseThresholds(%q)[%d] = %v, want %v", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}
