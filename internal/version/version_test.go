// ABOUTME: Tests for version constants
// ABOUTME: Checks the identifiers logged and advertised by the commands
package version

import (
	"strings"
	"testing"
)

func TestIdentifiers(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"Version", Version},
		{"Product", Product},
		{"Manufacturer", Manufacturer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value == "" || len(tt.value) > 64 {
				t.Errorf("unexpected %s %q", tt.name, tt.value)
			}
			if strings.ContainsAny(tt.value, "\n\t") {
				t.Errorf("%s %q contains control characters", tt.name, tt.value)
			}
		})
	}
}

func TestVersionIsSemver(t *testing.T) {
	parts := strings.Split(Version, ".")
	if len(parts) != 3 {
		t.Fatalf("expected major.minor.patch, got %q", Version)
	}
	for _, p := range parts {
		if p == "" || strings.Trim(p, "0123456789") != "" {
			t.Errorf("non-numeric component %q in %q", p, Version)
		}
	}
}

func TestString(t *testing.T) {
	if got, want := String(), "sbclink "+Version; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
