package service

import (
	"os"
	"path/filepath"
	"time"
	"voice-fusion/app/logger"
	"voice-fusion/app/model"
	"voice-fusion/app/store"

	"github.com/robfig/cron/v3"
)

// CleanupService 定时清理服务。按配置的 cron 表达式清理过期的
// 临时预处理产物和长期失败的音色记录。
type CleanupService struct {
	tempDir        string
	tempMaxAge     time.Duration
	failedVoiceTTL time.Duration
	voices         store.VoiceStore
	cron           *cron.Cron
	logger         *logger.Logger
}

// NewCleanupService 创建定时清理服务
func NewCleanupService(tempDir, cronSpec string, voices store.VoiceStore, log *logger.Logger) *CleanupService {
	s := &CleanupService{
		tempDir:        tempDir,
		tempMaxAge:     24 * time.Hour,
		failedVoiceTTL: 30 * 24 * time.Hour,
		voices:         voices,
		cron:           cron.New(),
		logger:         log,
	}

	if _, err := s.cron.AddFunc(cronSpec, s.run); err != nil {
		log.Errorf("注册清理任务失败: %v", err)
	}

	return s
}

// Start 启动定时清理
func (s *CleanupService) Start() {
	// 启动时先清理一次
	s.run()
	s.cron.Start()
	s.logger.Infof("定时清理服务已启动")
}

// Stop 停止定时清理
func (s *CleanupService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Infof("定时清理服务已停止")
}

func (s *CleanupService) run() {
	s.cleanupTempFiles()
	s.cleanupFailedVoices()
}

// cleanupTempFiles 删除超过保留期的临时文件
func (s *CleanupService) cleanupTempFiles() {
	entries, err := os.ReadDir(s.tempDir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warnf("读取临时目录失败: %v", err)
		}
		return
	}

	cutoff := time.Now().Add(-s.tempMaxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.tempDir, entry.Name())); err == nil {
				removed++
			}
		}
	}

	if removed > 0 {
		s.logger.Infof("清理了 %d 个过期临时文件", removed)
	}
}

// cleanupFailedVoices 删除长期处于失败状态的音色记录
func (s *CleanupService) cleanupFailedVoices() {
	if s.voices == nil {
		return
	}

	list, err := s.voices.List()
	if err != nil {
		s.logger.Warnf("查询音色列表失败: %v", err)
		return
	}

	cutoff := time.Now().Add(-s.failedVoiceTTL)
	removed := 0
	for _, voice := range list {
		if voice.Status != model.VoiceStatusFailed {
			continue
		}
		if voice.UpdatedAt.After(cutoff) {
			continue
		}
		if err := s.voices.Delete(voice.ID); err != nil {
			s.logger.Warnf("清理失败音色出错 voice=%s: %v", voice.ID, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Infof("清理了 %d 个失败音色", removed)
	}
}
