package main

import "testing"

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		want    string
	}{
		{"release tag returned as-is", "v0.4.0", "0123456789abcdef", "v0.4.0"},
		{"dev with commit uses short sha", "dev", "0123456789abcdef", "dev-0123456"},
		{"dev with unknown commit", "dev", "unknown", "dev"},
		{"empty version falls back to dev", " ", "abcdef1", "dev-abcdef1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatVersion(tt.version, tt.commit); got != tt.want {
				t.Fatalf("formatVersion(%q, %q) = %q, want %q", tt.version, tt.commit, got, tt.want)
			}
		})
	}
}
