package service

import (
	"os"

	"github.com/TIANLI0/MaskOverlay/model"
	"github.com/mdobak/go-xerrors"
	"gopkg.in/yaml.v3"
)

// FallbackColor 未配置类别使用的颜色（红色，alpha 120）
var FallbackColor = model.Color{R: 255, G: 0, B: 0, A: 120}

var defaultClasses = map[string]model.Color{
	"Pez":     {R: 0, G: 120, B: 255, A: 120},
	"Hueso":   {R: 255, G: 255, B: 0, A: 120},
	"Espina":  {R: 0, G: 255, B: 0, A: 120},
	"Anzuelo": {R: 255, G: 0, B: 255, A: 120},
}

// Palette 类别到颜色的不可变映射
type Palette struct {
	classes  map[string]model.Color
	fallback model.Color
}

type paletteFile struct {
	Fallback *model.Color           `yaml:"fallback"`
	Classes  map[string]model.Color `yaml:"classes"`
}

// NewPalette 创建调色板，classes 会被复制
func NewPalette(classes map[string]model.Color, fallback model.Color) *Palette {
	copied := make(map[string]model.Color, len(classes))
	for name, c := range classes {
		copied[name] = c
	}
	return &Palette{classes: copied, fallback: fallback}
}

// DefaultPalette 内置调色板
func DefaultPalette() *Palette {
	return NewPalette(defaultClasses, FallbackColor)
}

// LoadPalette 从 YAML 文件加载调色板，path 为空时返回内置调色板
func LoadPalette(path string) (*Palette, error) {
	if path == "" {
		return DefaultPalette(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Newf("read palette %s: %w", path, err)
	}

	var file paletteFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, xerrors.Newf("parse palette %s: %w", path, err)
	}

	fallback := FallbackColor
	if file.Fallback != nil {
		fallback = *file.Fallback
	}
	if fallback.A == 0 {
		return nil, xerrors.Newf("palette %s: fallback alpha must be non-zero", path)
	}
	for name, c := range file.Classes {
		if c.A == 0 {
			return nil, xerrors.Newf("palette %s: class %q alpha must be non-zero", path, name)
		}
	}

	return NewPalette(file.Classes, fallback), nil
}

// Lookup 返回类别颜色，未配置时返回 fallback
func (p *Palette) Lookup(class string) model.Color {
	if c, ok := p.classes[class]; ok {
		return c
	}
	return p.fallback
}

func (p *Palette) Fallback() model.Color {
	return p.fallback
}

// Len 已配置的类别数量
func (p *Palette) Len() int {
	return len(p.classes)
}
