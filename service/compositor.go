package service

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Compositor 把类别颜色按mask叠加到透明图层上
type Compositor struct {
	palette *Palette
}

func NewCompositor(palette *Palette) *Compositor {
	return &Compositor{palette: palette}
}

// NewOverlay 创建全透明的叠加图层
func NewOverlay(bounds image.Rectangle) *image.RGBA {
	return image.NewRGBA(bounds)
}

// Composite 以 over 规则把 class 的颜色按mask绘制到 overlay
func (c *Compositor) Composite(overlay *image.RGBA, mask *image.Gray, class string) {
	col := c.palette.Lookup(class)

	alpha := image.NewAlpha(mask.Bounds())
	for i, v := range mask.Pix {
		if v > 0 {
			alpha.Pix[i] = col.A
		}
	}

	src := image.NewUniform(color.NRGBA{R: col.R, G: col.G, B: col.B, A: 255})
	draw.DrawMask(overlay, overlay.Bounds(), src, image.Point{}, alpha, mask.Bounds().Min, draw.Over)
}

// Flatten 把叠加图层合成到原图上，原图先转换为不透明RGBA
func Flatten(base image.Image, overlay *image.RGBA) *image.RGBA {
	out := ToOpaqueRGBA(base)
	draw.Draw(out, out.Bounds(), overlay, overlay.Bounds().Min, draw.Over)
	return out
}

// ToOpaqueRGBA 丢弃alpha通道，坐标原点归零
func ToOpaqueRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			i := out.PixOffset(x-b.Min.X, y-b.Min.Y)
			out.Pix[i+0] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
			out.Pix[i+3] = 255
		}
	}
	return out
}
