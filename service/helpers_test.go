package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/TIANLI0/MaskOverlay/model"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// grayMaskBase64 生成 w×h 的灰度mask，rect 内为 value
func grayMaskBase64(t *testing.T, w, h int, rect image.Rectangle, value uint8) string {
	t.Helper()
	m := image.NewGray(image.Rect(0, 0, w, h))
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			m.SetGray(x, y, color.Gray{Y: value})
		}
	}
	return base64.StdEncoding.EncodeToString(pngBytes(t, m))
}

func square(x0, y0, x1, y1 float64) []model.Point {
	return []model.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

func near(a, b uint8, tol int) bool {
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	return d <= tol
}

type fakeDetector struct {
	preds   []model.Prediction
	err     error
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (f *fakeDetector) Predict(ctx context.Context, imageData []byte, threshold float64) ([]model.Prediction, error) {
	f.calls++
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.preds, f.err
}
