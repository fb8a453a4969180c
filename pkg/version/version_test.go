package version

import (
	"errors"
	"testing"

	"github.com/vektalab/embedviz/pkg/e"
)

// TestFromTag tests release tag parsing
func TestFromTag(t *testing.T) {
	tests := []struct {
		name    string
		tag     string
		want    string
		wantErr error
	}{
		{"ValidTag", "release-1.2.3", "1.2.3", nil},
		{"MissingPrefix", "v1.2.3", "", e.ErrInvalidReleaseTag},
		{"EmptyVersion", "release-", "", e.ErrInvalidReleaseTag},
		{"EmptyTag", "", "", e.ErrInvalidReleaseTag},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := FromTag(test.tag)
			if test.wantErr != nil {
				if !errors.Is(err, test.wantErr) {
					t.Errorf("FromTag(%q) error = %v, expected %v", test.tag, err, test.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != test.want {
				t.Errorf("FromTag(%q) = %q, expected %q", test.tag, got, test.want)
			}
		})
	}
}

// TestCheckTag tests the publish gate comparison
func TestCheckTag(t *testing.T) {
	t.Run("MatchingTag", func(t *testing.T) {
		if err := CheckTag("release-1.2.3", "1.2.3"); err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	})

	t.Run("VersionMismatch", func(t *testing.T) {
		err := CheckTag("release-1.2.4", "1.2.3")
		if !errors.Is(err, e.ErrVersionMismatch) {
			t.Errorf("Expected ErrVersionMismatch, got %v", err)
		}
	})

	t.Run("InvalidTag", func(t *testing.T) {
		err := CheckTag("1.2.3", "1.2.3")
		if !errors.Is(err, e.ErrInvalidReleaseTag) {
			t.Errorf("Expected ErrInvalidReleaseTag, got %v", err)
		}
	})

	t.Run("DeclaredConstantMatchesItself", func(t *testing.T) {
		if err := CheckTag("release-"+Version, Version); err != nil {
			t.Errorf("Declared version should pass its own gate: %v", err)
		}
	})
}
