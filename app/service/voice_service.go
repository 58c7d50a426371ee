package service

import (
	"context"
	"voice-fusion/app/engine"
	"voice-fusion/app/logger"
	"voice-fusion/app/model"
	"voice-fusion/app/storage"
	"voice-fusion/app/store"
)

// VoiceInfo 音色列表项
type VoiceInfo struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Status       string  `json:"status"`
	QualityScore float64 `json:"quality_score,omitempty"`
}

// VoiceService 音色目录服务
type VoiceService struct {
	voices  store.VoiceStore
	storage storage.ObjectStorage
	logger  *logger.Logger
}

// NewVoiceService 创建音色目录服务
func NewVoiceService(voices store.VoiceStore, objectStorage storage.ObjectStorage, log *logger.Logger) *VoiceService {
	return &VoiceService{
		voices:  voices,
		storage: objectStorage,
		logger:  log,
	}
}

// List 返回系统预设音色和用户克隆音色
func (s *VoiceService) List() ([]VoiceInfo, error) {
	result := make([]VoiceInfo, 0)

	// 系统预设音色始终可用
	for id, name := range engine.SystemVoiceNames() {
		result = append(result, VoiceInfo{
			ID:     id,
			Name:   name,
			Type:   model.VoiceTypeSystem,
			Status: model.VoiceStatusReady,
		})
	}

	cloned, err := s.voices.List()
	if err != nil {
		return nil, WrapError(ErrCodeStorage, err, "查询音色列表失败")
	}
	for _, voice := range cloned {
		result = append(result, VoiceInfo{
			ID:           voice.ID,
			Name:         voice.Name,
			Type:         voice.Type,
			Status:       voice.Status,
			QualityScore: voice.QualityScore,
		})
	}

	return result, nil
}

// Delete 删除克隆音色及其存储的参考音频
func (s *VoiceService) Delete(voiceID string) error {
	voice, err := s.voices.Get(voiceID)
	if err != nil {
		if err == store.ErrVoiceNotFound {
			return NewError(ErrCodeNotFound, "音色不存在")
		}
		return WrapError(ErrCodeStorage, err, "查询音色失败")
	}

	// 存储的参考音频尽力删除，失败不阻塞音色删除
	if voice.ReferenceURL != "" {
		if err := s.storage.Delete(context.Background(), voice.ReferenceURL); err != nil {
			s.logger.Warnf("删除参考音频失败 voice=%s: %v", voiceID, err)
		}
	}

	if err := s.voices.Delete(voiceID); err != nil {
		if err == store.ErrVoiceNotFound {
			return NewError(ErrCodeNotFound, "音色不存在")
		}
		return WrapError(ErrCodeStorage, err, "删除音色失败")
	}

	s.logger.Infof("音色已删除: voice=%s", voiceID)
	return nil
}
