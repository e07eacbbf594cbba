package service

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/TIANLI0/MaskOverlay/model"
)

// over 按非预乘 over 规则计算单通道的期望值（dst 不透明）
func over(src, dst uint8, alpha uint8) uint8 {
	a := float64(alpha) / 255
	return uint8(math.Round(float64(src)*a + float64(dst)*(1-a)))
}

func testPalette() *Palette {
	return NewPalette(map[string]model.Color{
		"Pez":   {R: 0, G: 0, B: 255, A: 120},
		"Hueso": {R: 255, G: 0, B: 0, A: 120},
	}, FallbackColor)
}

func TestCompositeAlphaOnlyInsideMask(t *testing.T) {
	c := NewCompositor(testPalette())
	mask := NewMaskProcessor().FillPolygon(square(0, 0, 4, 4), 10, 10)
	overlay := NewOverlay(image.Rect(0, 0, 10, 10))

	c.Composite(overlay, mask, "Hueso")

	if got := overlay.RGBAAt(1, 1); got != (color.RGBA{R: 120, A: 120}) {
		t.Errorf("inside = %+v, want premultiplied red alpha 120", got)
	}
	if got := overlay.RGBAAt(6, 6); got != (color.RGBA{}) {
		t.Errorf("outside = %+v, want transparent", got)
	}
}

func TestCompositeUsesFallbackColor(t *testing.T) {
	c := NewCompositor(testPalette())
	mask := NewMaskProcessor().FillPolygon(square(0, 0, 4, 4), 10, 10)
	overlay := NewOverlay(image.Rect(0, 0, 10, 10))

	c.Composite(overlay, mask, "Ballena")

	if got := overlay.RGBAAt(0, 0); got.A != FallbackColor.A || got.R != FallbackColor.A {
		t.Errorf("fallback pixel = %+v, want red alpha %d", got, FallbackColor.A)
	}
}

func TestFlattenOverWhite(t *testing.T) {
	c := NewCompositor(testPalette())
	mask := NewMaskProcessor().FillPolygon(square(0, 0, 5, 5), 10, 10)
	overlay := NewOverlay(image.Rect(0, 0, 10, 10))
	c.Composite(overlay, mask, "Hueso")

	out := Flatten(solidImage(10, 10, color.RGBA{R: 255, G: 255, B: 255, A: 255}), overlay)

	got := out.RGBAAt(2, 2)
	want := color.RGBA{R: 255, G: over(0, 255, 120), B: over(0, 255, 120), A: 255}
	if !near(got.R, want.R, 1) || !near(got.G, want.G, 1) || !near(got.B, want.B, 1) || got.A != 255 {
		t.Errorf("blended = %+v, want ~%+v", got, want)
	}
	if got := out.RGBAAt(8, 8); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("untouched = %+v, want white", got)
	}
}

func TestCompositeOrderDependentOverlap(t *testing.T) {
	mp := NewMaskProcessor()
	left := mp.FillPolygon(square(0, 0, 6, 6), 10, 10)
	right := mp.FillPolygon(square(4, 4, 10, 10), 10, 10)
	black := solidImage(10, 10, color.RGBA{A: 255})
	c := NewCompositor(testPalette())

	render := func(first, second string) *image.RGBA {
		overlay := NewOverlay(image.Rect(0, 0, 10, 10))
		c.Composite(overlay, left, first)
		c.Composite(overlay, right, second)
		return Flatten(black, overlay)
	}

	blueThenRed := render("Pez", "Hueso").RGBAAt(5, 5)
	redThenBlue := render("Hueso", "Pez").RGBAAt(5, 5)

	// 后绘制的颜色在重叠处占主导
	wantR := over(255, 0, 120)
	wantB := uint8(math.Round(120 * (1 - 120.0/255)))
	if !near(blueThenRed.R, wantR, 2) || !near(blueThenRed.B, wantB, 2) {
		t.Errorf("blue then red overlap = %+v, want R~%d B~%d", blueThenRed, wantR, wantB)
	}
	if !near(redThenBlue.B, wantR, 2) || !near(redThenBlue.R, wantB, 2) {
		t.Errorf("red then blue overlap = %+v, want B~%d R~%d", redThenBlue, wantR, wantB)
	}
	if blueThenRed == redThenBlue {
		t.Error("overlap color should depend on composite order")
	}
}

func TestToOpaqueRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 8, 8))
	src.SetNRGBA(5, 5, color.NRGBA{R: 10, G: 20, B: 30, A: 0})
	src.SetNRGBA(7, 7, color.NRGBA{R: 200, G: 100, B: 50, A: 128})

	out := ToOpaqueRGBA(src)
	if out.Bounds() != image.Rect(0, 0, 3, 3) {
		t.Fatalf("bounds = %v, want origin-aligned 3x3", out.Bounds())
	}
	if got := out.RGBAAt(0, 0); got != (color.RGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("transparent pixel = %+v", got)
	}
	if got := out.RGBAAt(2, 2); !near(got.R, 200, 1) || !near(got.G, 100, 1) || !near(got.B, 50, 1) || got.A != 255 {
		t.Errorf("translucent pixel = %+v", got)
	}
}
