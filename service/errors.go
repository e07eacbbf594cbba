package service

import (
	"errors"
	"fmt"

	"github.com/mdobak/go-xerrors"
)

var (
	// ErrMaskDecode 栅格mask的base64或图像数据无效（单个检测级别）
	ErrMaskDecode = xerrors.Message("mask decode failed")
	// ErrDimensionMismatch 解码后的mask无法对齐到画布尺寸
	ErrDimensionMismatch = xerrors.Message("mask dimensions cannot be aligned to canvas")
	// ErrMissingMask 检测既没有栅格mask也没有多边形
	ErrMissingMask = xerrors.Message("detection has no mask")
	// ErrScaleMismatch 阈值与推理服务的置信度尺度不一致（请求级别，配置错误）
	ErrScaleMismatch = xerrors.Message("confidence scale mismatch")
	// ErrNoUsableMasks 有检测通过阈值，但所有mask都无法解码
	ErrNoUsableMasks = xerrors.Message("no qualifying detection had a decodable mask")
	// ErrInvalidThreshold 阈值不在 [0,1] 内
	ErrInvalidThreshold = xerrors.Message("threshold out of range [0,1]")
	// ErrInvalidImage 上传的图像无法解码
	ErrInvalidImage = xerrors.Message("invalid image")
	// ErrQueueFull 处理队列等待超时
	ErrQueueFull = xerrors.Message("processing queue is full")
	// ErrInference 推理服务调用失败
	ErrInference = xerrors.Message("inference request failed")
)

// MaskDecodeError 记录哪个检测的mask解码失败
type MaskDecodeError struct {
	Index int
	Class string
	Err   error
}

func (e *MaskDecodeError) Error() string {
	return fmt.Sprintf("detection %d (%s): %v", e.Index, e.Class, e.Err)
}

func (e *MaskDecodeError) Unwrap() error {
	return e.Err
}

// IsRequestError 判断错误是否由请求数据引起
func IsRequestError(err error) bool {
	return errors.Is(err, ErrInvalidThreshold) || errors.Is(err, ErrInvalidImage)
}
