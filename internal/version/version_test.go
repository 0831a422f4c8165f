// ABOUTME: Tests for version constants
// ABOUTME: Ensures version information is properly defined
package version

import (
	"testing"
)

func TestIdentifiersDefined(t *testing.T) {
	placeholders := map[string]bool{"TODO": true, "FIXME": true, "XXX": true, "placeholder": true}

	tests := []struct {
		name  string
		value string
	}{
		{"Version", Version},
		{"Product", Product},
		{"Manufacturer", Manufacturer},
	}

	for _, tt := range tests {
		if tt.value == "" {
			t.Errorf("%s should not be empty", tt.name)
		}
		if len(tt.value) > 100 {
			t.Errorf("%s is unreasonably long", tt.name)
		}
		if placeholders[tt.value] {
			t.Errorf("%s should not be placeholder value: %s", tt.name, tt.value)
		}
	}
}

func TestString(t *testing.T) {
	if got := String(); got != Product+" "+Version {
		t.Errorf("unexpected version string %q", got)
	}
}
