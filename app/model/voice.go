package model

import (
	"time"

	"gorm.io/gorm"
)

// VoiceType 音色类型常量
const (
	VoiceTypeSystem = "system" // 系统预设音色
	VoiceTypeCloned = "cloned" // 用户克隆音色
)

// VoiceStatus 音色状态常量
const (
	VoiceStatusReady    = "ready"    // 可用
	VoiceStatusTraining = "training" // 训练中
	VoiceStatusFailed   = "failed"   // 训练失败
)

// Voice 音色模型
type Voice struct {
	ID           string         `gorm:"primarykey;size:36" json:"id"`
	Name         string         `gorm:"size:100;not null;comment:音色名称" json:"name"`
	Type         string         `gorm:"size:20;not null;default:cloned;comment:音色类型(system,cloned)" json:"type"`
	Status       string         `gorm:"size:20;not null;default:training;index;comment:状态(ready,training,failed)" json:"status"`
	ReferenceURL string         `gorm:"type:text;comment:参考音频地址" json:"reference_url,omitempty"`
	ModelMeta    string         `gorm:"type:json;comment:训练产物元数据" json:"-"`
	QualityScore float64        `gorm:"default:0;comment:质量分数(0-1)" json:"quality_score"`
	Duration     float64        `gorm:"default:0;comment:样本时长(秒)" json:"duration"`
	SampleRate   int            `gorm:"default:0;comment:样本采样率" json:"sample_rate"`
	ErrorMessage string         `gorm:"type:text;comment:失败原因" json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定表名
func (Voice) TableName() string {
	return "voices"
}

// IsReady 检查音色是否可用于合成
func (v *Voice) IsReady() bool {
	return v.Status == VoiceStatusReady
}
