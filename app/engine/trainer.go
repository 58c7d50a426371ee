package engine

import (
	"context"
	"encoding/json"
	"time"
	"voice-fusion/app/audio"
)

// TrainedModel 训练产物元数据，持久化到音色目录
type TrainedModel struct {
	VoiceID       string          `json:"voice_id"`
	VoiceName     string          `json:"voice_name"`
	Features      *audio.Features `json:"features"`
	ModelType     string          `json:"model_type"`
	QualityScore  float64         `json:"quality_score"`
	TrainingSteps int             `json:"training_steps"`
	Version       string          `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Marshal 序列化为 JSON
func (m *TrainedModel) Marshal() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ProgressFunc 训练进度回调，progress 为 0-100 的整体进度
type ProgressFunc func(progress int, step string)

// Trainer 训练后端。真实引擎和模拟引擎都实现这个接口。
type Trainer interface {
	Train(ctx context.Context, voiceID, voiceName string, features *audio.Features, report ProgressFunc) (*TrainedModel, error)
}

// SimulatedTrainer 模拟训练后端。按固定步数推进进度，
// 在没有真实训练引擎的环境下保持整条流水线可用。
type SimulatedTrainer struct {
	steps        int
	stepInterval time.Duration
}

// NewSimulatedTrainer 创建模拟训练后端
func NewSimulatedTrainer(stepInterval time.Duration) *SimulatedTrainer {
	return &SimulatedTrainer{
		steps:        50,
		stepInterval: stepInterval,
	}
}

// Train 模拟训练过程，进度从 60% 推进到 80%
func (t *SimulatedTrainer) Train(ctx context.Context, voiceID, voiceName string, features *audio.Features, report ProgressFunc) (*TrainedModel, error) {
	for step := 0; step < t.steps; step++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		progress := 60 + step*20/t.steps
		if report != nil {
			report(progress, "训练声音模型...")
		}

		if t.stepInterval > 0 {
			time.Sleep(t.stepInterval)
		}
	}

	return &TrainedModel{
		VoiceID:       voiceID,
		VoiceName:     voiceName,
		Features:      features,
		ModelType:     "simulated",
		QualityScore:  features.QualityScore,
		TrainingSteps: t.steps,
		Version:       "1.0",
		CreatedAt:     time.Now(),
	}, nil
}
