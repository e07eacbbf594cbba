package service

import (
	"context"
	"encoding/base64"
	"math"
	"time"

	"github.com/TIANLI0/MaskOverlay/config"
	"github.com/TIANLI0/MaskOverlay/model"
	"github.com/TIANLI0/MaskOverlay/utils"
	"github.com/mdobak/go-xerrors"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// AnalyzerService 负责单个请求的 推理 -> 叠加 流程，并限制并发
type AnalyzerService struct {
	detector     Detector
	pipeline     *Pipeline
	semaphore    *semaphore.Weighted
	queueTimeout time.Duration
}

func NewAnalyzerService(cfg *config.PipelineConfig, detector Detector, pipeline *Pipeline) *AnalyzerService {
	return &AnalyzerService{
		detector:     detector,
		pipeline:     pipeline,
		semaphore:    semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		queueTimeout: time.Duration(cfg.QueueTimeout) * time.Second,
	}
}

// Analyze 处理上传图像并返回标注结果
func (s *AnalyzerService) Analyze(ctx context.Context, imageData []byte, threshold float64) (*model.AnalyzeResult, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, xerrors.Newf("%w: %v", ErrInvalidThreshold, threshold)
	}

	// 先解码，避免把无效图像发给推理服务
	img, format, err := DecodeImage(imageData)
	if err != nil {
		return nil, err
	}

	// 并发控制
	queueCtx, cancel := context.WithTimeout(ctx, s.queueTimeout)
	defer cancel()
	if err := s.semaphore.Acquire(queueCtx, 1); err != nil {
		return nil, xerrors.Newf("%w: %v", ErrQueueFull, err)
	}
	defer s.semaphore.Release(1)

	startTime := time.Now()
	md5 := utils.BytesMD5(imageData)
	b := img.Bounds()

	utils.Logger.Info("processing image",
		zap.String("md5", md5),
		zap.String("format", format),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()),
		zap.Float64("threshold", threshold))

	preds, err := s.detector.Predict(ctx, imageData, threshold)
	if err != nil {
		return nil, err
	}

	result, err := s.pipeline.Render(img, preds, threshold)
	if err != nil {
		return nil, err
	}

	utils.Logger.Info("image processed successfully",
		zap.String("md5", md5),
		zap.Duration("duration", time.Since(startTime)),
		zap.Int("qualified", result.Qualified),
		zap.Int("rendered", result.Rendered),
		zap.Int("skipped", len(result.Skipped)),
		zap.Any("areas", result.Areas))

	return &model.AnalyzeResult{
		MD5:        md5,
		Width:      b.Dx(),
		Height:     b.Dy(),
		Threshold:  threshold,
		Image:      base64.StdEncoding.EncodeToString(result.PNG),
		Areas:      result.Areas,
		Detections: result.Rendered,
		Skipped:    result.Skipped,
		Timestamp:  time.Now().Unix(),
	}, nil
}
