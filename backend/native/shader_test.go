package native

import (
	"strings"
	"testing"

	"github.com/gogpu/filterchain/gpucore"
)

func TestSpecialize(t *testing.T) {
	src := "override levels: f32 = 4.0;\noverride taps: u32;\nfn main() {}\n"

	tests := []struct {
		name      string
		constants gpucore.Constants
		want      []string
		wantErr   bool
	}{
		{
			name:    "missing value without default",
			wantErr: true,
		},
		{
			name:      "defaults and overrides",
			constants: gpucore.Constants{"taps": 5},
			want:      []string{"const levels: f32 = 4.0;", "const taps: u32 = 5u;"},
		},
		{
			name:      "override replaces default",
			constants: gpucore.Constants{"levels": 3, "taps": 1},
			want:      []string{"const levels: f32 = 3.0;", "const taps: u32 = 1u;"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := specialize(src, tt.constants)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("specialize: %v", err)
			}
			if strings.Contains(got, "override") {
				t.Errorf("override left in output:\n%s", got)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output missing %q:\n%s", w, got)
				}
			}
		})
	}
}

func TestFormatConstant(t *testing.T) {
	tests := []struct {
		v    float64
		typ  string
		want string
	}{
		{4, "f32", "4.0"},
		{0.25, "f32", "0.25"},
		{1e-9, "f32", "1e-09"},
		{7.9, "u32", "7u"},
		{-3, "u32", "0u"},
		{-3, "i32", "-3i"},
		{1, "bool", "true"},
		{0, "bool", "false"},
	}
	for _, tt := range tests {
		if got := formatConstant(tt.v, tt.typ); got != tt.want {
			t.Errorf("formatConstant(%v, %s) = %q, want %q", tt.v, tt.typ, got, tt.want)
		}
	}
}

func TestEntryPoints(t *testing.T) {
	src := `
fn helper(x: f32) -> f32 { return x; }

@compute @workgroup_size(8, 8, 1)
fn invert(@builtin(global_invocation_id) id: vec3<u32>) {}

@compute
@workgroup_size(8, 8, 1)
fn copy(@builtin(global_invocation_id) id: vec3<u32>) {}
`
	got := entryPoints(src)
	want := []string{"copy", "invert"}
	if len(got) != len(want) {
		t.Fatalf("entryPoints = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entryPoints[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
