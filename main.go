package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/TIANLI0/MaskOverlay/config"
	"github.com/TIANLI0/MaskOverlay/handler"
	"github.com/TIANLI0/MaskOverlay/middleware"
	"github.com/TIANLI0/MaskOverlay/service"
	"github.com/TIANLI0/MaskOverlay/utils"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	BuildID   = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

func main() {
	// .env 中的 RF_API_KEY 等变量
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.New()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := utils.InitLogger(cfg.Server.Mode, cfg.Server.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer utils.Sync()

	utils.Logger.Info("starting MaskOverlay server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("git_branch", GitBranch))

	if cfg.Inference.APIKey == "" {
		utils.Logger.Warn("inference api key is empty, set RF_API_KEY")
	}

	palette, err := service.LoadPalette(cfg.Palette.File)
	if err != nil {
		utils.Logger.Fatal("failed to load palette", zap.Error(err))
	}

	pipeline := service.NewPipeline(palette, service.ConfidenceScale(cfg.Inference.ConfidenceScale))
	detector := service.NewRoboflowClient(&cfg.Inference)
	analyzer := service.NewAnalyzerService(&cfg.Pipeline, detector, pipeline)

	utils.Logger.Info("pipeline configured",
		zap.String("model", cfg.Inference.Model),
		zap.String("confidence_scale", string(pipeline.Scale())),
		zap.Int("palette_classes", palette.Len()),
		zap.Float64("default_threshold", cfg.Pipeline.DefaultThreshold),
		zap.Int("max_concurrent", cfg.Pipeline.MaxConcurrent))

	// 设置Gin模式
	gin.SetMode(cfg.Server.Mode)

	r := handler.NewRouter(cfg, analyzer, handler.BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		BuildID:   BuildID,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
	}, middleware.Logger(), middleware.CORS())

	// 静态文件服务
	r.Static("/static", "./static")
	r.StaticFile("/", "./static/index.html")

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	utils.Logger.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		utils.Logger.Fatal("failed to start server", zap.Error(err))
	}
}
