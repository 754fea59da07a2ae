// SPDX-License-Identifier: MPL-2.0

package semver

import "testing"

func TestSatisfies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		version    string
		constraint string
		want       bool
	}{
		{name: "empty constraint accepts unversioned", version: "", constraint: "", want: true},
		{name: "empty constraint accepts versioned", version: "1.2.3", constraint: "", want: true},
		{name: "caret match", version: "1.4.0", constraint: "^1.2.0", want: true},
		{name: "caret major mismatch", version: "2.0.0", constraint: "^1.2.0", want: false},
		{name: "range", version: "1.9.9", constraint: ">=1.2.0 <2.0.0", want: true},
		{name: "unversioned never satisfies", version: "", constraint: ">=0.0.0", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := MustParseVersion(tt.version)
			c := MustParseConstraint(tt.constraint)
			if got := Satisfies(v, c); got != tt.want {
				t.Errorf("Satisfies(%q, %q) = %v, want %v", tt.version, tt.constraint, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	if _, err := ParseVersion("not-a-version"); err == nil {
		t.Error("ParseVersion() expected error")
	}
	if _, err := ParseConstraint(">>>1"); err == nil {
		t.Error("ParseConstraint() expected error")
	}
}

func TestCompare(t *testing.T) {
	t.Parallel()

	a := MustParseVersion("1.0.0")
	b := MustParseVersion("1.1.0")
	if Compare(a, b) != -1 || Compare(b, a) != 1 || Compare(a, a) != 0 {
		t.Error("Compare() returned inconsistent ordering")
	}
	if Compare(Version{}, a) != -1 {
		t.Error("zero Version should sort first")
	}
	if got := a.String(); got != "1.0.0" {
		t.Errorf("String() = %q", got)
	}
}
