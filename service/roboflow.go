package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/TIANLI0/MaskOverlay/config"
	"github.com/TIANLI0/MaskOverlay/model"
	"github.com/TIANLI0/MaskOverlay/utils"
	"github.com/mdobak/go-xerrors"
	"go.uber.org/zap"
)

// Detector 外部实例分割推理服务
type Detector interface {
	Predict(ctx context.Context, imageData []byte, threshold float64) ([]model.Prediction, error)
}

// RoboflowClient 调用 Roboflow 托管推理接口
type RoboflowClient struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

func NewRoboflowClient(cfg *config.InferenceConfig) *RoboflowClient {
	return &RoboflowClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   strings.Trim(cfg.Model, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type roboflowResponse struct {
	Predictions []model.Prediction `json:"predictions"`
}

// Predict 上传图像并返回预测，threshold 为 [0,1]，接口参数使用 0-100
func (c *RoboflowClient) Predict(ctx context.Context, imageData []byte, threshold float64) ([]model.Prediction, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image")
	if err != nil {
		return nil, xerrors.Newf("create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(imageData)); err != nil {
		return nil, xerrors.Newf("copy image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, xerrors.Newf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(threshold), body)
	if err != nil {
		return nil, xerrors.Newf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, xerrors.Newf("%w: send request: %v", ErrInference, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, xerrors.Newf("%w: status %d: %s", ErrInference, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result roboflowResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, xerrors.Newf("%w: decode response: %v", ErrInference, err)
	}

	utils.Logger.Info("inference completed",
		zap.String("model", c.model),
		zap.Int("predictions", len(result.Predictions)),
		zap.Duration("duration", time.Since(start)))

	return result.Predictions, nil
}

func (c *RoboflowClient) endpoint(threshold float64) string {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("format", "json")
	q.Set("confidence", strconv.FormatFloat(threshold*100, 'f', -1, 64))
	return c.baseURL + "/" + c.model + "?" + q.Encode()
}
