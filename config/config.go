package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Inference InferenceConfig `mapstructure:"inference"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Palette   PaletteConfig   `mapstructure:"palette"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	LogLevel     string        `mapstructure:"log_level"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type InferenceConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Model           string        `mapstructure:"model"`
	APIKey          string        `mapstructure:"api_key"`
	ConfidenceScale string        `mapstructure:"confidence_scale"` // unit (0-1) 或 percent (0-100)
	Timeout         time.Duration `mapstructure:"timeout"`
}

type PipelineConfig struct {
	DefaultThreshold float64 `mapstructure:"default_threshold"`
	MaxConcurrent    int     `mapstructure:"max_concurrent"`
	QueueTimeout     int     `mapstructure:"queue_timeout"`
}

type UploadConfig struct {
	MaxSize      int64    `mapstructure:"max_size"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

type PaletteConfig struct {
	File string `mapstructure:"file"`
}

// Load 从 YAML 文件加载配置，文件不存在时使用默认值和环境变量
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 设置默认值
	setDefaults(v)
	bindEnv(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if !strings.HasPrefix(cfg.Server.Port, ":") && !strings.Contains(cfg.Server.Port, ":") {
		cfg.Server.Port = ":" + cfg.Server.Port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DefaultPath 默认配置文件路径
const DefaultPath = "config.yaml"

// New 使用默认配置路径加载配置，配置无效时返回错误
func New() (*Config, error) {
	return Load(DefaultPath)
}

// Validate 检查配置取值范围
func (c *Config) Validate() error {
	switch c.Inference.ConfidenceScale {
	case "unit", "percent":
	default:
		return fmt.Errorf("invalid inference.confidence_scale %q (want unit or percent)", c.Inference.ConfidenceScale)
	}
	if c.Pipeline.DefaultThreshold < 0 || c.Pipeline.DefaultThreshold > 1 {
		return fmt.Errorf("pipeline.default_threshold %.3f out of range [0,1]", c.Pipeline.DefaultThreshold)
	}
	if c.Pipeline.MaxConcurrent < 1 {
		return fmt.Errorf("pipeline.max_concurrent must be at least 1, got %d", c.Pipeline.MaxConcurrent)
	}
	if c.Upload.MaxSize <= 0 {
		return fmt.Errorf("upload.max_size must be positive, got %d", c.Upload.MaxSize)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.log_level", "")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)

	v.SetDefault("inference.base_url", "https://detect.roboflow.com")
	v.SetDefault("inference.model", "rayosx/1")
	v.SetDefault("inference.api_key", "")
	v.SetDefault("inference.confidence_scale", "percent")
	v.SetDefault("inference.timeout", 30*time.Second)

	v.SetDefault("pipeline.default_threshold", 0.5)
	v.SetDefault("pipeline.max_concurrent", 4)
	v.SetDefault("pipeline.queue_timeout", 30)

	v.SetDefault("upload.max_size", 10*1024*1024)
	v.SetDefault("upload.allowed_types", []string{"image/jpeg", "image/png", "image/jpg", "image/webp", "image/bmp", "image/tiff"})

	v.SetDefault("palette.file", "")
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("MASKOVERLAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("inference.api_key", "MASKOVERLAY_INFERENCE_API_KEY", "RF_API_KEY")
	_ = v.BindEnv("inference.model", "MASKOVERLAY_INFERENCE_MODEL", "RF_MODEL")
	_ = v.BindEnv("server.port", "MASKOVERLAY_SERVER_PORT", "PORT")
}
