package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Training  TrainingConfig  `mapstructure:"training"`
	Synthesis SynthesisConfig `mapstructure:"synthesis"`
	Task      TaskConfig      `mapstructure:"task"`
	Cleanup   CleanupConfig   `mapstructure:"cleanup"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`      // json 或 text
	Output     string `mapstructure:"output"`      // stdout 或 file
	MaxSize    int    `mapstructure:"max_size"`    // 兆字节
	MaxBackups int    `mapstructure:"max_backups"` // 备份数量
	MaxAge     int    `mapstructure:"max_age"`     // 天数
	Compress   bool   `mapstructure:"compress"`    // 是否压缩旧文件
}

type StorageConfig struct {
	Type     string `mapstructure:"type"`      // local 或 blob
	BlobURL  string `mapstructure:"blob_url"`  // Blob 存储地址
	Token    string `mapstructure:"token"`     // Blob 读写令牌
	LocalDir string `mapstructure:"local_dir"` // 本地音频存储目录
	BaseURL  string `mapstructure:"base_url"`  // 本地音频对外访问前缀
}

type EngineConfig struct {
	URL            string        `mapstructure:"url"`             // 远程AI引擎地址，为空时本地执行
	CloneSpaces    []string      `mapstructure:"clone_spaces"`    // 克隆合成后端地址列表
	NeuralURL      string        `mapstructure:"neural_url"`      // 通用神经网络TTS后端地址
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // 单次后端调用超时
}

type TrainingConfig struct {
	MaxUploadSize int64         `mapstructure:"max_upload_size"` // 字节
	MinDuration   float64       `mapstructure:"min_duration"`    // 秒
	MaxDuration   float64       `mapstructure:"max_duration"`    // 秒
	StepInterval  time.Duration `mapstructure:"step_interval"`   // 模拟训练每步耗时
	TempDir       string        `mapstructure:"temp_dir"`        // 预处理临时目录
}

type SynthesisConfig struct {
	MaxTextLength int     `mapstructure:"max_text_length"` // 字符数
	Speed         float64 `mapstructure:"speed"`           // 克隆合成语速
	Language      string  `mapstructure:"language"`        // 克隆合成语言标签
}

type TaskConfig struct {
	RetentionHours int `mapstructure:"retention_hours"` // 终态任务保留时长
}

type CleanupConfig struct {
	Cron string `mapstructure:"cron"` // 定时清理表达式
}

func Load() *Config {
	setDefaults()

	// 读取配置
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("未找到配置文件，使用默认配置")
		} else {
			log.Fatalf("读取配置文件出错: %v", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("无法解码配置: %v", err)
	}

	// 验证配置
	if err := validateConfig(&config); err != nil {
		log.Fatalf("配置验证失败: %v", err)
	}

	return &config
}

// setDefaults 设置默认配置
func setDefaults() {
	viper.SetDefault("server.port", "8000")

	// 日志默认配置
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.max_size", 100)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age", 28)
	viper.SetDefault("log.compress", true)

	// 对象存储默认配置
	viper.SetDefault("storage.type", "local")
	viper.SetDefault("storage.blob_url", "https://blob.vercel-storage.com")
	viper.SetDefault("storage.local_dir", "data/audio")
	viper.SetDefault("storage.base_url", "/api/audio")

	// 合成引擎默认配置
	viper.SetDefault("engine.url", "")
	viper.SetDefault("engine.clone_spaces", []string{
		"https://myshell-openvoice-openvoice-v2.hf.space",
	})
	viper.SetDefault("engine.neural_url", "")
	viper.SetDefault("engine.request_timeout", "60s")

	// 训练默认配置
	viper.SetDefault("training.max_upload_size", 10*1024*1024) // 10MB
	viper.SetDefault("training.min_duration", 3.0)
	viper.SetDefault("training.max_duration", 60.0)
	viper.SetDefault("training.step_interval", "100ms")
	viper.SetDefault("training.temp_dir", "data/temp")

	// 合成默认配置
	viper.SetDefault("synthesis.max_text_length", 500)
	viper.SetDefault("synthesis.speed", 1.0)
	viper.SetDefault("synthesis.language", "zh")

	// 任务与清理默认配置
	viper.SetDefault("task.retention_hours", 24)
	viper.SetDefault("cleanup.cron", "0 3 * * *")
}

// validateConfig 验证配置的有效性
func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("服务器端口未设置")
	}
	if config.Training.MinDuration <= 0 || config.Training.MaxDuration <= config.Training.MinDuration {
		return fmt.Errorf("训练音频时长区间配置无效")
	}
	if config.Synthesis.MaxTextLength <= 0 {
		return fmt.Errorf("合成文本长度上限配置无效")
	}
	if config.Storage.Type == "blob" && config.Storage.Token == "" {
		return fmt.Errorf("Blob 存储需要配置读写令牌")
	}
	return nil
}
