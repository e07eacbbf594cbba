package model

// AnalyzeResult 分析结果
type AnalyzeResult struct {
	MD5        string           `json:"md5"`
	Width      int              `json:"width"`
	Height     int              `json:"height"`
	Threshold  float64          `json:"threshold"`
	Image      string           `json:"image"` // base64编码的PNG
	Areas      map[string]int64 `json:"areas"`
	Detections int              `json:"detections"`
	Skipped    []SkippedMask    `json:"skipped,omitempty"`
	Timestamp  int64            `json:"timestamp"`
}

// SkippedMask 因mask无法解码而被跳过的检测
type SkippedMask struct {
	Index  int    `json:"index"`
	Class  string `json:"class"`
	Reason string `json:"reason"`
}

// UploadResponse 上传响应
type UploadResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    *AnalyzeResult `json:"data,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
