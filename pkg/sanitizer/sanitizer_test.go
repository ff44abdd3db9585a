package sanitizer

import (
	"reflect"
	"testing"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  persistent headaches  ",
			want:  "persistent headaches",
		},
		{
			name:  "multiple spaces between words",
			input: "persistent    headaches",
			want:  "persistent headaches",
		},
		{
			name:  "tabs and newlines",
			input: "persistent\t\nheadaches",
			want:  "persistent headaches",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "preserve punctuation and case",
			input: " Follow-up: blood pressure (recheck) ",
			want:  "Follow-up: blood pressure (recheck)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimAndNormalize(tt.input)
			if got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTrimAndNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"  chest   pain ",
		"routine check-up",
		"",
	}

	for _, in := range inputs {
		once := TrimAndNormalize(in)
		twice := TrimAndNormalize(once)
		if once != twice {
			t.Errorf("TrimAndNormalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalizeDepartment(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "spaces become underscores",
			input: "Internal Medicine",
			want:  "internal_medicine",
		},
		{
			name:  "hyphens collapse",
			input: "internal-medicine",
			want:  "internal_medicine",
		},
		{
			name:  "mixed separators",
			input: "  ENT -- Head & Neck  ",
			want:  "ent_head_neck",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only special characters",
			input: "---",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDepartment(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeDepartment(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeID(t *testing.T) {
	if got := NormalizeID("  Prof-42  "); got != "Prof-42" {
		t.Errorf("NormalizeID preserved case/content incorrectly: %q", got)
	}
}

func TestSanitizeSlice(t *testing.T) {
	got := SanitizeSlice(
		[]string{" Cardiology ", "cardiology", "", "Oncology", "---"},
		NormalizeDepartment,
	)
	want := []string{"cardiology", "oncology"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SanitizeSlice = %v, want %v", got, want)
	}
}
