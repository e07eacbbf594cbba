package service

import (
	"bytes"
	"encoding/base64"
	"image"
	"math"
	"strings"

	"github.com/TIANLI0/MaskOverlay/model"
	"github.com/mdobak/go-xerrors"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// 多边形像素覆盖率达到一半即视为被覆盖
const coverageThreshold = 128

// MaskProcessor 负责把检测的mask来源转换为画布尺寸的二值mask
type MaskProcessor struct{}

func NewMaskProcessor() *MaskProcessor {
	return &MaskProcessor{}
}

// Rasterize 生成 w×h 的二值mask（0/255）
func (mp *MaskProcessor) Rasterize(src model.MaskSource, w, h int) (*image.Gray, error) {
	switch src.Kind {
	case model.MaskRaster:
		return mp.decodeRaster(src.Blob, w, h)
	case model.MaskPolygon:
		return mp.FillPolygon(src.Polygon, w, h), nil
	case model.MaskNone:
		return nil, ErrMissingMask
	default:
		return nil, xerrors.Newf("%w: unknown mask kind %d", ErrMissingMask, int(src.Kind))
	}
}

// decodeRaster 解码base64的mask图像并对齐到画布
func (mp *MaskProcessor) decodeRaster(blob string, w, h int) (*image.Gray, error) {
	data, err := decodeMaskPayload(blob)
	if err != nil {
		return nil, xerrors.Newf("%w: base64: %v", ErrMaskDecode, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, xerrors.Newf("%w: image: %v", ErrMaskDecode, err)
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, xerrors.Newf("%w: decoded mask is %dx%d", ErrDimensionMismatch, b.Dx(), b.Dy())
	}

	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)

	if b.Dx() != w || b.Dy() != h {
		gray = mp.alignToCanvas(gray, w, h)
	}

	binarize(gray)
	return gray, nil
}

// alignToCanvas 最近邻缩放到画布尺寸
func (mp *MaskProcessor) alignToCanvas(src *image.Gray, w, h int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// FillPolygon 按非零环绕规则填充多边形，退化多边形返回全零mask
func (mp *MaskProcessor) FillPolygon(points []model.Point, w, h int) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, w, h))

	pts := finitePoints(points)
	if distinctCount(pts) < 3 {
		return mask
	}
	pts = clipToCanvas(pts, w, h)
	if len(pts) < 3 {
		return mask
	}

	r := vector.NewRasterizer(w, h)
	r.DrawOp = draw.Src
	r.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		r.LineTo(float32(p.X), float32(p.Y))
	}
	r.ClosePath()

	coverage := image.NewAlpha(mask.Bounds())
	r.Draw(coverage, coverage.Bounds(), image.Opaque, image.Point{})

	for i, a := range coverage.Pix {
		if a >= coverageThreshold {
			mask.Pix[i] = 255
		}
	}
	return mask
}

// decodeMaskPayload 去掉 data:...;base64, 头并解码
func decodeMaskPayload(blob string) ([]byte, error) {
	payload := strings.TrimSpace(blob)
	if strings.HasPrefix(payload, "data:") {
		if i := strings.IndexByte(payload, ','); i >= 0 {
			payload = payload[i+1:]
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// 部分服务返回不带填充的base64
		if raw, rawErr := base64.RawStdEncoding.DecodeString(payload); rawErr == nil {
			return raw, nil
		}
		return nil, err
	}
	return data, nil
}

func binarize(mask *image.Gray) {
	for i, v := range mask.Pix {
		if v > 0 {
			mask.Pix[i] = 255
		}
	}
}

func finitePoints(points []model.Point) []model.Point {
	out := make([]model.Point, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// clipToCanvas 把多边形裁剪到 [-w, 2w]×[-h, 2h]。
// 光栅器用 float32 累加覆盖率，远超画布的坐标会让面积失真。
func clipToCanvas(points []model.Point, w, h int) []model.Point {
	minX, maxX := -float64(w), 2*float64(w)
	minY, maxY := -float64(h), 2*float64(h)

	pts := points
	pts = clipEdge(pts, func(p model.Point) bool { return p.X >= minX }, func(a, b model.Point) model.Point { return crossX(a, b, minX) })
	pts = clipEdge(pts, func(p model.Point) bool { return p.X <= maxX }, func(a, b model.Point) model.Point { return crossX(a, b, maxX) })
	pts = clipEdge(pts, func(p model.Point) bool { return p.Y >= minY }, func(a, b model.Point) model.Point { return crossY(a, b, minY) })
	pts = clipEdge(pts, func(p model.Point) bool { return p.Y <= maxY }, func(a, b model.Point) model.Point { return crossY(a, b, maxY) })
	return pts
}

// clipEdge Sutherland-Hodgman 的单边裁剪
func clipEdge(points []model.Point, inside func(model.Point) bool, cross func(a, b model.Point) model.Point) []model.Point {
	if len(points) == 0 {
		return nil
	}
	out := make([]model.Point, 0, len(points)+4)
	prev := points[len(points)-1]
	for _, cur := range points {
		switch curIn, prevIn := inside(cur), inside(prev); {
		case curIn && prevIn:
			out = append(out, cur)
		case curIn:
			out = append(out, cross(prev, cur), cur)
		case prevIn:
			out = append(out, cross(prev, cur))
		}
		prev = cur
	}
	return out
}

func crossX(a, b model.Point, x float64) model.Point {
	t := (x - a.X) / (b.X - a.X)
	return model.Point{X: x, Y: a.Y + t*(b.Y-a.Y)}
}

func crossY(a, b model.Point, y float64) model.Point {
	t := (y - a.Y) / (b.Y - a.Y)
	return model.Point{X: a.X + t*(b.X-a.X), Y: y}
}

func distinctCount(points []model.Point) int {
	seen := make(map[model.Point]struct{}, len(points))
	for _, p := range points {
		seen[p] = struct{}{}
	}
	return len(seen)
}
