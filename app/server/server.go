package server

import (
	"context"
	"net/http"
	"time"
	"voice-fusion/app/config"
	"voice-fusion/app/database"
	"voice-fusion/app/engine"
	"voice-fusion/app/handler"
	"voice-fusion/app/logger"
	"voice-fusion/app/middleware"
	"voice-fusion/app/service"
	"voice-fusion/app/storage"
	"voice-fusion/app/store"
	"voice-fusion/app/task"

	"github.com/gin-gonic/gin"
)

// Server 表示 HTTP 服务器
type Server struct {
	Config         *config.Config
	Logger         *logger.Logger
	gin            *gin.Engine
	http           *http.Server
	cleanupService *service.CleanupService
	localStorage   *storage.LocalStorage

	registry  *task.Registry
	training  *service.TrainingService
	synthesis *service.SynthesisService
	voices    *service.VoiceService
}

// New 创建一个新的 Server 实例
func New(cfg *config.Config, log *logger.Logger) *Server {
	router := gin.New()

	s := &Server{
		gin: router,
		http: &http.Server{
			Addr:    ":" + cfg.Server.Port,
			Handler: router,
		},
		Config: cfg,
		Logger: log,
	}

	s.setupServices()
	s.setupRoutes()

	return s
}

// setupServices 组装存储、合成后端和各业务服务
func (s *Server) setupServices() {
	cfg := s.Config

	s.registry = task.NewRegistry(time.Duration(cfg.Task.RetentionHours) * time.Hour)
	voiceStore := store.NewGormVoiceStore(database.GetDB())
	s.cleanupService = service.NewCleanupService(cfg.Training.TempDir, cfg.Cleanup.Cron, voiceStore, s.Logger)

	// 对象存储：本地目录或远端 Blob
	var objectStorage storage.ObjectStorage
	if cfg.Storage.Type == "blob" {
		objectStorage = storage.NewBlobStorage(cfg.Storage.BlobURL, cfg.Storage.Token, s.Logger)
	} else {
		local := storage.NewLocalStorage(cfg.Storage.LocalDir, cfg.Storage.BaseURL, s.Logger)
		s.localStorage = local
		objectStorage = local
	}

	// 合成后端按优先级排列，占位后端兜底
	backends := []engine.Backend{
		engine.NewCloneBackend(cfg.Engine.CloneSpaces, objectStorage, cfg.Engine.RequestTimeout, s.Logger),
	}
	if cfg.Engine.NeuralURL != "" {
		backends = append(backends, engine.NewNeuralBackend(cfg.Engine.NeuralURL, cfg.Engine.RequestTimeout, s.Logger))
	}
	backends = append(backends, engine.NewSilenceBackend())

	trainer := engine.NewSimulatedTrainer(cfg.Training.StepInterval)

	s.training = service.NewTrainingService(cfg, s.registry, voiceStore, objectStorage, trainer, s.Logger)
	s.synthesis = service.NewSynthesisService(cfg, s.registry, voiceStore, objectStorage, backends, s.Logger)
	s.voices = service.NewVoiceService(voiceStore, objectStorage, s.Logger)

	// 配置了远程引擎时训练和合成都走远端
	if cfg.Engine.URL != "" {
		remote := engine.NewRemoteEngine(cfg.Engine.URL, s.Logger)
		bridge := service.NewStatusBridge(s.registry, s.Logger)
		s.training.WithRemoteEngine(remote, bridge)
		s.synthesis.WithRemoteEngine(remote, bridge)
		s.Logger.Infof("使用远程AI引擎: %s", cfg.Engine.URL)
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.Logger.Infof("在端口 %s 启动服务器", s.http.Addr)

	// 启动定时清理服务
	s.cleanupService.Start()

	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	// 停止定时清理服务
	s.cleanupService.Stop()

	// 关闭数据库连接
	if err := database.Close(); err != nil {
		s.Logger.Errorf("关闭数据库连接失败: %v", err)
	}
	return s.http.Shutdown(ctx)
}

// setupRoutes 设置API路由
func (s *Server) setupRoutes() {
	s.gin.Use(middleware.AccessLog(s.Logger), gin.Recovery())

	// 创建处理器实例
	voiceHandler := handler.NewVoiceHandler(s.training, s.voices, s.Config.Training.MaxUploadSize)
	ttsHandler := handler.NewTTSHandler(s.synthesis)
	taskHandler := handler.NewTaskHandler(s.registry)

	s.gin.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API路由组
	api := s.gin.Group("/api")
	{
		// 音色管理
		voices := api.Group("/voices")
		{
			voices.POST("", voiceHandler.CreateVoice)
			voices.GET("", voiceHandler.ListVoices)
			voices.DELETE("/:id", voiceHandler.DeleteVoice)
		}

		// 语音合成
		api.POST("/tts", ttsHandler.Synthesize)

		// 任务状态查询
		api.GET("/tasks/:id", taskHandler.GetTask)

		// 本地存储模式下挂载音频文件访问
		if s.localStorage != nil {
			audioHandler := handler.NewAudioHandler(s.localStorage)
			api.GET("/audio/:filename", audioHandler.ServeAudio)
		}
	}
}
