package utils

import (
	"strconv"
	"time"
)

// GenerateID 生成基于时间戳的请求ID
func GenerateID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}
