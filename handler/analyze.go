package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/TIANLI0/MaskOverlay/config"
	"github.com/TIANLI0/MaskOverlay/model"
	"github.com/TIANLI0/MaskOverlay/service"
	"github.com/TIANLI0/MaskOverlay/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AnalyzeHandler struct {
	cfg      *config.Config
	analyzer *service.AnalyzerService
}

func NewAnalyzeHandler(cfg *config.Config, analyzer *service.AnalyzerService) *AnalyzeHandler {
	return &AnalyzeHandler{
		cfg:      cfg,
		analyzer: analyzer,
	}
}

// Analyze 处理图片上传并返回标注图和各类别面积
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		utils.Logger.Error("failed to get uploaded file", zap.Error(err))
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "请上传图片文件",
			Error:   err.Error(),
		})
		return
	}

	// 验证文件大小
	if file.Size > h.cfg.Upload.MaxSize {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: fmt.Sprintf("文件大小超过限制 (%d MB)", h.cfg.Upload.MaxSize/(1024*1024)),
		})
		return
	}

	// 验证文件类型
	contentType := file.Header.Get("Content-Type")
	if contentType != "" && !h.isAllowedType(contentType) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "不支持的文件类型",
		})
		return
	}

	threshold, err := h.parseThreshold(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "阈值必须是 0 到 1 之间的数字",
			Error:   err.Error(),
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		utils.Logger.Error("failed to open uploaded file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "读取文件失败",
			Error:   err.Error(),
		})
		return
	}
	defer src.Close()

	imageData, err := io.ReadAll(src)
	if err != nil {
		utils.Logger.Error("failed to read uploaded file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "读取文件失败",
			Error:   err.Error(),
		})
		return
	}

	requestID := utils.GenerateID()
	utils.Logger.Info("file uploaded",
		zap.String("request_id", requestID),
		zap.String("filename", file.Filename),
		zap.Int64("size", file.Size),
		zap.Float64("threshold", threshold))

	result, err := h.analyzer.Analyze(c.Request.Context(), imageData, threshold)
	if err != nil {
		status, message := classifyError(err)
		utils.Logger.Error("failed to analyze image",
			zap.String("request_id", requestID),
			zap.Int("status", status),
			zap.Error(err))
		c.JSON(status, model.ErrorResponse{
			Success: false,
			Message: message,
			Error:   err.Error(),
		})
		return
	}

	message := "处理成功"
	if result.Detections == 0 {
		message = "未检测到超过阈值的目标"
	}
	c.JSON(http.StatusOK, model.UploadResponse{
		Success: true,
		Message: message,
		Data:    result,
	})
}

func (h *AnalyzeHandler) parseThreshold(c *gin.Context) (float64, error) {
	raw := strings.TrimSpace(c.PostForm("threshold"))
	if raw == "" {
		return h.cfg.Pipeline.DefaultThreshold, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("threshold %v out of range [0,1]", v)
	}
	return v, nil
}

func (h *AnalyzeHandler) isAllowedType(contentType string) bool {
	for _, allowed := range h.cfg.Upload.AllowedTypes {
		if strings.EqualFold(contentType, allowed) {
			return true
		}
	}
	return false
}

// classifyError 把服务层错误映射为HTTP状态码和提示
func classifyError(err error) (int, string) {
	switch {
	case service.IsRequestError(err):
		return http.StatusBadRequest, "图片或参数无效"
	case errors.Is(err, service.ErrNoUsableMasks):
		return http.StatusUnprocessableEntity, "所有检测的mask都无法解析"
	case errors.Is(err, service.ErrScaleMismatch):
		return http.StatusInternalServerError, "置信度尺度配置错误"
	case errors.Is(err, service.ErrQueueFull):
		return http.StatusServiceUnavailable, "处理队列已满，请稍后重试"
	case errors.Is(err, service.ErrInference):
		return http.StatusBadGateway, "推理服务调用失败"
	default:
		return http.StatusInternalServerError, "图片处理失败"
	}
}
