package gpucore

import (
	"errors"
	"testing"
)

func TestConstantsCanonical(t *testing.T) {
	tests := []struct {
		c    Constants
		want string
	}{
		{nil, ""},
		{Constants{"levels": 4}, "levels=4"},
		{Constants{"b": 0.5, "a": 2}, "a=2,b=0.5"},
		{Constants{"x": 1e-9}, "x=1e-09"},
	}
	for _, tt := range tests {
		if got := tt.c.Canonical(); got != tt.want {
			t.Errorf("%v.Canonical() = %q, want %q", tt.c, got, tt.want)
		}
		back, err := ParseConstants(tt.want)
		if err != nil {
			t.Errorf("ParseConstants(%q): %v", tt.want, err)
			continue
		}
		if back.Canonical() != tt.want {
			t.Errorf("ParseConstants(%q) = %v", tt.want, back)
		}
	}
}

func TestParseConstantsErrors(t *testing.T) {
	for _, s := range []string{"levels", "=1", "a=x", "a=1,,b=2"} {
		if _, err := ParseConstants(s); err == nil {
			t.Errorf("ParseConstants(%q) succeeded", s)
		}
	}
}

func TestTextureDescriptor(t *testing.T) {
	tests := []struct {
		desc  TextureDescriptor
		size  int
		valid bool
	}{
		{TextureDescriptor{Width: 4, Height: 2, Format: TextureFormatRGBA8Unorm}, 32, true},
		{TextureDescriptor{Width: 1, Height: 1, Format: TextureFormatBGRA8Unorm}, 4, true},
		{TextureDescriptor{Width: 0, Height: 2, Format: TextureFormatRGBA8Unorm}, 0, false},
		{TextureDescriptor{Width: 2, Height: 2}, 0, false},
	}
	for _, tt := range tests {
		err := tt.desc.Validate()
		if (err == nil) != tt.valid {
			t.Errorf("%+v.Validate() = %v, want valid=%v", tt.desc, err, tt.valid)
		}
		if tt.valid && tt.desc.ByteSize() != tt.size {
			t.Errorf("%+v.ByteSize() = %d, want %d", tt.desc, tt.desc.ByteSize(), tt.size)
		}
	}
	err := TextureDescriptor{Width: -1, Height: 1, Format: TextureFormatRGBA8Unorm}.Validate()
	if !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("err = %v, want ErrInvalidDimensions", err)
	}
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("naga: bad shader")
	err := error(&PipelineError{Identity: "posterize[levels=4]", Err: cause})
	if !errors.Is(err, ErrPipelineCompilationFailed) || !errors.Is(err, cause) {
		t.Errorf("PipelineError does not unwrap: %v", err)
	}
	if !errors.Is(&KernelError{Name: "x"}, ErrKernelNotFound) {
		t.Error("KernelError does not unwrap to ErrKernelNotFound")
	}
}
