package store

import (
	"errors"
	"voice-fusion/app/model"

	"gorm.io/gorm"
)

// GormVoiceStore 基于 gorm 的音色存储实现
type GormVoiceStore struct {
	db *gorm.DB
}

// NewGormVoiceStore 创建音色存储实例
func NewGormVoiceStore(db *gorm.DB) *GormVoiceStore {
	return &GormVoiceStore{db: db}
}

func (s *GormVoiceStore) Create(v *model.Voice) error {
	return s.db.Create(v).Error
}

func (s *GormVoiceStore) Get(id string) (*model.Voice, error) {
	var voice model.Voice
	if err := s.db.First(&voice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoiceNotFound
		}
		return nil, err
	}
	return &voice, nil
}

func (s *GormVoiceStore) List() ([]model.Voice, error) {
	var voices []model.Voice
	if err := s.db.Order("created_at DESC").Find(&voices).Error; err != nil {
		return nil, err
	}
	return voices, nil
}

func (s *GormVoiceStore) Update(v *model.Voice) error {
	return s.db.Save(v).Error
}

func (s *GormVoiceStore) Delete(id string) error {
	result := s.db.Delete(&model.Voice{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVoiceNotFound
	}
	return nil
}
