package service

import (
	"math"

	"github.com/TIANLI0/MaskOverlay/model"
	"github.com/mdobak/go-xerrors"
)

// ConfidenceScale 推理服务返回置信度所用的尺度
type ConfidenceScale string

const (
	ScaleUnit    ConfidenceScale = "unit"    // 0-1
	ScalePercent ConfidenceScale = "percent" // 0-100
)

const unknownClass = "unknown"

// ScaledThreshold 把 [0,1] 的阈值换算到推理服务的尺度
func ScaledThreshold(threshold float64, scale ConfidenceScale) float64 {
	if scale == ScalePercent {
		return threshold * 100
	}
	return threshold
}

// Normalize 把原始预测转换为 Detection，置信度低于阈值时返回 false
func Normalize(p model.Prediction, threshold float64, scale ConfidenceScale) (model.Detection, bool) {
	if math.IsNaN(p.Confidence) || p.Confidence < ScaledThreshold(threshold, scale) {
		return model.Detection{}, false
	}

	class := p.Class
	if class == "" {
		class = unknownClass
	}

	det := model.Detection{Class: class, Confidence: p.Confidence}
	switch {
	case p.Mask != "":
		det.Mask = model.RasterMask(p.Mask)
	case len(p.Points) > 0:
		det.Mask = model.PolygonMask(p.Points)
	}
	return det, true
}

// CheckScale 每个请求检查一次置信度尺度是否与配置一致
func CheckScale(preds []model.Prediction, threshold float64, scale ConfidenceScale) error {
	if len(preds) == 0 {
		return nil
	}

	maxConf := math.Inf(-1)
	for _, p := range preds {
		maxConf = math.Max(maxConf, p.Confidence)
	}

	switch scale {
	case ScaleUnit:
		if maxConf > 1 {
			return xerrors.Newf("%w: confidence %.2f exceeds 1 with scale %q", ErrScaleMismatch, maxConf, scale)
		}
	case ScalePercent:
		if maxConf <= 1 && maxConf < ScaledThreshold(threshold, scale) {
			return xerrors.Newf("%w: all %d confidences are <= 1 and below threshold %.2f with scale %q",
				ErrScaleMismatch, len(preds), ScaledThreshold(threshold, scale), scale)
		}
	default:
		return xerrors.Newf("%w: unknown scale %q", ErrScaleMismatch, scale)
	}
	return nil
}
