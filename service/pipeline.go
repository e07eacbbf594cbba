package service

import (
	"image"
	"math"
	"time"

	"github.com/TIANLI0/MaskOverlay/model"
	"github.com/TIANLI0/MaskOverlay/utils"
	"github.com/mdobak/go-xerrors"
	"go.uber.org/zap"
)

// Pipeline 按检测顺序完成 归一化 -> 栅格化 -> 面积累加 -> 叠加 的处理
//
// Pipeline 本身无可变状态，可以被多个请求并发使用；每次 Run 都有自己的
// overlay 和面积表。
type Pipeline struct {
	maskProcessor *MaskProcessor
	compositor    *Compositor
	scale         ConfidenceScale
}

// Result 单次处理结果
type Result struct {
	Image     *image.RGBA
	PNG       []byte
	Areas     AreaTally
	Qualified int // 通过阈值的检测数
	Rendered  int // 实际叠加的mask数
	Skipped   []model.SkippedMask
}

func NewPipeline(palette *Palette, scale ConfidenceScale) *Pipeline {
	return &Pipeline{
		maskProcessor: NewMaskProcessor(),
		compositor:    NewCompositor(palette),
		scale:         scale,
	}
}

func (p *Pipeline) Scale() ConfidenceScale {
	return p.scale
}

// Run 处理已解码的图像和预测列表
func (p *Pipeline) Run(base image.Image, preds []model.Prediction, threshold float64) (*Result, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, xerrors.Newf("%w: %v", ErrInvalidThreshold, threshold)
	}
	if err := CheckScale(preds, threshold, p.scale); err != nil {
		return nil, err
	}

	startTime := time.Now()
	b := base.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil, xerrors.Newf("%w: zero-sized canvas", ErrInvalidImage)
	}

	result := &Result{Areas: make(AreaTally)}
	overlay := NewOverlay(image.Rect(0, 0, width, height))
	attempted := 0

	for i, pred := range preds {
		det, ok := Normalize(pred, threshold, p.scale)
		if !ok {
			continue
		}
		result.Qualified++

		if det.Mask.Kind == model.MaskNone {
			utils.Logger.Debug("detection without mask",
				zap.Int("index", i),
				zap.String("class", det.Class))
			continue
		}
		attempted++

		mask, err := p.maskProcessor.Rasterize(det.Mask, width, height)
		if err != nil {
			decodeErr := &MaskDecodeError{Index: i, Class: det.Class, Err: err}
			result.Skipped = append(result.Skipped, model.SkippedMask{
				Index:  i,
				Class:  det.Class,
				Reason: err.Error(),
			})
			utils.Logger.Warn("skipping detection mask", zap.Error(decodeErr))
			continue
		}

		area := result.Areas.Accumulate(mask, det.Class)
		p.compositor.Composite(overlay, mask, det.Class)
		result.Rendered++

		utils.Logger.Debug("detection composited",
			zap.Int("index", i),
			zap.String("class", det.Class),
			zap.String("mask", det.Mask.Kind.String()),
			zap.Float64("confidence", det.Confidence),
			zap.Int64("area", area))
	}

	if attempted > 0 && result.Rendered == 0 {
		return nil, xerrors.Newf("%w: %d of %d masks failed to decode",
			ErrNoUsableMasks, len(result.Skipped), attempted)
	}

	if result.Rendered > 0 {
		result.Image = Flatten(base, overlay)
	} else {
		result.Image = ToOpaqueRGBA(base)
	}

	utils.Logger.Debug("pipeline finished",
		zap.Int("predictions", len(preds)),
		zap.Int("qualified", result.Qualified),
		zap.Int("rendered", result.Rendered),
		zap.Int("skipped", len(result.Skipped)),
		zap.Duration("duration", time.Since(startTime)))

	return result, nil
}

// Process 解码原始图像字节，执行 Run 并编码为PNG
func (p *Pipeline) Process(imageData []byte, preds []model.Prediction, threshold float64) (*Result, error) {
	img, _, err := DecodeImage(imageData)
	if err != nil {
		return nil, err
	}

	return p.Render(img, preds, threshold)
}

// Render 执行 Run 并把结果编码为PNG
func (p *Pipeline) Render(img image.Image, preds []model.Prediction, threshold float64) (*Result, error) {
	result, err := p.Run(img, preds, threshold)
	if err != nil {
		return nil, err
	}

	result.PNG, err = EncodePNG(result.Image)
	if err != nil {
		return nil, err
	}
	return result, nil
}
