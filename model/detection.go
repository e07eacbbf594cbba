package model

// Point 多边形顶点（图像像素坐标）
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Prediction 推理服务返回的原始预测
type Prediction struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
	Mask       string  `json:"mask,omitempty"` // base64编码的mask，可能带data:头
	Points     []Point `json:"points,omitempty"`
	X          float64 `json:"x,omitempty"`
	Y          float64 `json:"y,omitempty"`
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`
}

// MaskKind mask来源类型
type MaskKind int

const (
	MaskNone MaskKind = iota
	MaskRaster
	MaskPolygon
)

func (k MaskKind) String() string {
	switch k {
	case MaskRaster:
		return "raster"
	case MaskPolygon:
		return "polygon"
	default:
		return "none"
	}
}

// MaskSource 归一化后的mask来源，Kind决定哪个字段有效
type MaskSource struct {
	Kind    MaskKind
	Blob    string
	Polygon []Point
}

func RasterMask(blob string) MaskSource {
	return MaskSource{Kind: MaskRaster, Blob: blob}
}

func PolygonMask(points []Point) MaskSource {
	return MaskSource{Kind: MaskPolygon, Polygon: points}
}

// Detection 归一化后的检测结果
type Detection struct {
	Class      string
	Confidence float64
	Mask       MaskSource
}

// Color 类别颜色（非预乘）
type Color struct {
	R uint8 `yaml:"r" json:"r"`
	G uint8 `yaml:"g" json:"g"`
	B uint8 `yaml:"b" json:"b"`
	A uint8 `yaml:"a" json:"a"`
}
