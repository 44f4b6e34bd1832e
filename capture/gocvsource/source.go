//go:build gocv

package gocvsource

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/gogpu/filterchain/internal/logging"
	"github.com/gogpu/filterchain/texture"
)

// Source reads frames from a camera or a video file.
type Source struct {
	capture *gocv.VideoCapture
	name    string
	log     *slog.Logger
}

// Open opens a capture device by index (int) or a video file or stream
// URL (string).
func Open(device any, logger *slog.Logger) (*Source, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("gocvsource: open %v: %w", device, err)
	}
	return &Source{capture: capture, name: fmt.Sprint(device), log: logging.OrNop(logger)}, nil
}

// Close releases the capture device.
func (s *Source) Close() error {
	return s.capture.Close()
}

// Stream reads frames until the capture ends or ctx is done. Frames are
// converted to BGRA into one reused buffer, so a collector's texture cache
// keeps hitting the same wrapper while the frame size stays constant.
func (s *Source) Stream(ctx context.Context, deliver func(*texture.PixelBuffer) error) error {
	mat := gocv.NewMat()
	defer mat.Close()
	bgra := gocv.NewMat()
	defer bgra.Close()

	var buf []byte
	start := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.capture.Read(&mat) {
			s.log.Debug("gocvsource: end of stream", "source", s.name)
			return nil
		}
		if mat.Empty() {
			continue
		}

		switch mat.Channels() {
		case 1:
			gocv.CvtColor(mat, &bgra, gocv.ColorGrayToBGRA)
		case 3:
			gocv.CvtColor(mat, &bgra, gocv.ColorBGRToBGRA)
		case 4:
			mat.CopyTo(&bgra)
		default:
			s.log.Debug("gocvsource: frame skipped", "channels", mat.Channels())
			continue
		}

		w, h := bgra.Cols(), bgra.Rows()
		if len(buf) != w*h*4 {
			buf = make([]byte, w*h*4)
		}
		copy(buf, bgra.ToBytes())

		pb := &texture.PixelBuffer{
			Width:     w,
			Height:    h,
			Stride:    w * 4,
			Format:    texture.PixelFormatBGRA32,
			Data:      buf,
			Timestamp: time.Since(start),
		}
		if err := deliver(pb); err != nil {
			return err
		}
	}
}
