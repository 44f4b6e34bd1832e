package frame

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		height  int
		format  Format
		wantErr error
	}{
		{"valid RGBA8", 100, 100, FormatRGBA8, nil},
		{"valid BGRA8", 64, 48, FormatBGRA8, nil},
		{"valid Gray8", 50, 50, FormatGray8, nil},
		{"1x1 minimum", 1, 1, FormatRGBA8, nil},
		{"zero width", 0, 100, FormatRGBA8, ErrInvalidDimensions},
		{"negative height", 100, -1, FormatRGBA8, ErrInvalidDimensions},
		{"invalid format", 100, 100, FormatInvalid, ErrInvalidFormat},
		{"unknown format", 100, 100, Format(255), ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.width, tt.height, tt.format)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if f.Width() != tt.width || f.Height() != tt.height {
				t.Errorf("size = %dx%d, want %dx%d", f.Width(), f.Height(), tt.width, tt.height)
			}
			if f.Stride() != tt.format.RowBytes(tt.width) {
				t.Errorf("Stride() = %d, want %d", f.Stride(), tt.format.RowBytes(tt.width))
			}
			if f.ID() == "" {
				t.Error("expected a non-empty ID")
			}
			if f.ColorSpace() != ColorSpaceNone {
				t.Errorf("ColorSpace() = %v, want none", f.ColorSpace())
			}
		})
	}
}

func TestFromRawSharesData(t *testing.T) {
	data := make([]byte, 2*12+8)
	f, err := FromRaw(data, 2, 3, FormatRGBA8, 12)
	if err != nil {
		t.Fatalf("FromRaw: %v", err)
	}
	if f.IsPacked() {
		t.Error("padded frame reported as packed")
	}
	if err := f.SetRGBA(1, 2, 1, 2, 3, 4); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data[28:32], []byte{1, 2, 3, 4}) {
		t.Errorf("write did not reach the backing slice: %v", data[28:32])
	}

	if _, err := FromRaw(data, 2, 3, FormatRGBA8, 4); !errors.Is(err, ErrInvalidStride) {
		t.Errorf("short stride: err = %v, want ErrInvalidStride", err)
	}
	if _, err := FromRaw(data[:10], 2, 3, FormatRGBA8, 12); !errors.Is(err, ErrDataTooSmall) {
		t.Errorf("short data: err = %v, want ErrDataTooSmall", err)
	}
}

func TestPackedDropsPadding(t *testing.T) {
	data := make([]byte, 12*2)
	f, _ := FromRaw(data, 2, 2, FormatRGBA8, 12)
	f.Fill(9, 8, 7, 6)

	p := f.Packed()
	if len(p) != 16 {
		t.Fatalf("len(Packed()) = %d, want 16", len(p))
	}
	for i := 0; i < len(p); i += 4 {
		if !bytes.Equal(p[i:i+4], []byte{9, 8, 7, 6}) {
			t.Fatalf("pixel %d = %v", i/4, p[i:i+4])
		}
	}
}

func TestBGRAChannelOrder(t *testing.T) {
	f, _ := New(1, 1, FormatBGRA8)
	_ = f.SetRGBA(0, 0, 10, 20, 30, 40)
	if !bytes.Equal(f.Data(), []byte{30, 20, 10, 40}) {
		t.Errorf("BGRA storage = %v", f.Data())
	}
	r, g, b, a := f.GetRGBA(0, 0)
	if r != 10 || g != 20 || b != 30 || a != 40 {
		t.Errorf("GetRGBA = %d %d %d %d", r, g, b, a)
	}
}

func TestConvert(t *testing.T) {
	src, _ := New(3, 2, FormatRGBA8)
	src.Fill(200, 100, 50, 255)
	src.SetColorSpace(ColorSpaceDisplayP3)

	bgra, err := src.Convert(FormatBGRA8)
	if err != nil {
		t.Fatal(err)
	}
	if bgra.ColorSpace() != ColorSpaceDisplayP3 {
		t.Errorf("color space lost: %v", bgra.ColorSpace())
	}
	if bgra.Data()[0] != 50 || bgra.Data()[2] != 200 {
		t.Errorf("BGRA bytes = %v", bgra.Data()[:4])
	}

	back, _ := bgra.Convert(FormatRGBA8)
	if !back.SameContent(src) {
		t.Error("RGBA -> BGRA -> RGBA is not lossless")
	}
	if back.ID() == src.ID() {
		t.Error("converted frame reused the source ID")
	}
}

func TestCloneIsDeep(t *testing.T) {
	f, _ := New(2, 2, FormatRGBA8)
	f.Fill(1, 1, 1, 1)
	c := f.Clone()
	c.Fill(2, 2, 2, 2)
	if r, _, _, _ := f.GetRGBA(0, 0); r != 1 {
		t.Error("Clone shares storage with the original")
	}
}

func TestColorSpaceOrDefault(t *testing.T) {
	if got := ColorSpaceNone.OrDefault(); got != ColorSpaceSRGB {
		t.Errorf("none.OrDefault() = %v", got)
	}
	if got := ColorSpaceDisplayP3.OrDefault(); got != ColorSpaceDisplayP3 {
		t.Errorf("P3.OrDefault() = %v", got)
	}
}

func TestDecodeRoundTripPNG(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.NRGBA{R: 250, G: 10, B: 20, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	f, err := LoadBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if f.Width() != 4 || f.Height() != 3 || f.Format() != FormatRGBA8 {
		t.Fatalf("decoded %dx%d %v", f.Width(), f.Height(), f.Format())
	}
	if r, g, b, a := f.GetRGBA(1, 1); r != 250 || g != 10 || b != 20 || a != 255 {
		t.Errorf("pixel = %d %d %d %d", r, g, b, a)
	}

	if _, err := LoadBytes(nil); !errors.Is(err, ErrEmptyData) {
		t.Errorf("LoadBytes(nil) err = %v", err)
	}
}

func TestFromImageGeneric(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	gray.SetGray(1, 0, color.Gray{Y: 77})
	f := FromImage(gray)
	if r, g, b, a := f.GetRGBA(1, 0); r != 77 || g != 77 || b != 77 || a != 255 {
		t.Errorf("pixel = %d %d %d %d", r, g, b, a)
	}
}
