package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"voice-fusion/app/audio"
	"voice-fusion/app/config"
	"voice-fusion/app/engine"
	"voice-fusion/app/logger"
	"voice-fusion/app/model"
	"voice-fusion/app/storage"
	"voice-fusion/app/store"
	"voice-fusion/app/task"

	"github.com/google/uuid"
)

// SubmitResult 训练任务的创建结果
type SubmitResult struct {
	TaskID           string `json:"task_id"`
	VoiceID          string `json:"voice_id"`
	EstimatedSeconds int    `json:"estimated_seconds"`
}

// TrainingService 声音克隆训练服务。驱动单条训练流水线：
// 校验 → 预处理 → 特征提取 → 训练 → 质量门禁 → 持久化。
type TrainingService struct {
	cfg      *config.Config
	registry *task.Registry
	voices   store.VoiceStore
	storage  storage.ObjectStorage
	trainer  engine.Trainer
	remote   *engine.RemoteEngine
	bridge   *StatusBridge
	logger   *logger.Logger
}

// NewTrainingService 创建训练服务
func NewTrainingService(
	cfg *config.Config,
	registry *task.Registry,
	voices store.VoiceStore,
	objectStorage storage.ObjectStorage,
	trainer engine.Trainer,
	log *logger.Logger,
) *TrainingService {
	return &TrainingService{
		cfg:      cfg,
		registry: registry,
		voices:   voices,
		storage:  objectStorage,
		trainer:  trainer,
		logger:   log,
	}
}

// WithRemoteEngine 配置远程引擎，训练将提交到远端并通过状态桥跟踪
func (s *TrainingService) WithRemoteEngine(remote *engine.RemoteEngine, bridge *StatusBridge) *TrainingService {
	s.remote = remote
	s.bridge = bridge
	return s
}

// Submit 接收上传的音频样本，创建音色和训练任务并在后台执行流水线。
// 校验失败时快速返回，不创建任何任务。
func (s *TrainingService) Submit(audioData []byte, filename, displayName string) (*SubmitResult, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" || len([]rune(displayName)) > 20 {
		return nil, NewError(ErrCodeValidation, "音色名称长度应在1-20字符之间")
	}
	if int64(len(audioData)) > s.cfg.Training.MaxUploadSize {
		return nil, NewError(ErrCodeValidation, "文件过大，请上传小于%dMB的音频文件",
			s.cfg.Training.MaxUploadSize/1024/1024)
	}

	// 样本先落盘再校验，流水线也从这份文件读取
	ext := strings.ToLower(filepath.Ext(filename))
	samplePath, err := audio.CreateTempFile(s.cfg.Training.TempDir, ext)
	if err != nil {
		return nil, WrapError(ErrCodeStorage, err, "保存上传文件失败")
	}
	if err := os.WriteFile(samplePath, audioData, 0644); err != nil {
		audio.CleanupTempFile(samplePath)
		return nil, WrapError(ErrCodeStorage, err, "保存上传文件失败")
	}

	info, err := audio.ValidateFile(samplePath, audio.ValidateOptions{
		MaxFileSize: s.cfg.Training.MaxUploadSize,
		MinDuration: s.cfg.Training.MinDuration,
		MaxDuration: s.cfg.Training.MaxDuration,
	})
	if err != nil {
		audio.CleanupTempFile(samplePath)
		return nil, WrapError(ErrCodeValidation, err, "音频样本校验失败")
	}

	// 参考音频写入对象存储，训练完成后供克隆合成复用（写入后不再修改）
	referenceURL, err := s.storage.Put(context.Background(), audioData, contentTypeFor(ext), "voices")
	if err != nil {
		audio.CleanupTempFile(samplePath)
		return nil, WrapError(ErrCodeStorage, err, "参考音频持久化失败")
	}

	voiceID := uuid.NewString()
	voice := &model.Voice{
		ID:           voiceID,
		Name:         displayName,
		Type:         model.VoiceTypeCloned,
		Status:       model.VoiceStatusTraining,
		ReferenceURL: referenceURL,
		Duration:     info.Duration,
		SampleRate:   info.SampleRate,
	}
	if err := s.voices.Create(voice); err != nil {
		audio.CleanupTempFile(samplePath)
		return nil, WrapError(ErrCodeStorage, err, "创建音色记录失败")
	}

	t := s.registry.Create(task.KindVoiceTraining, task.Input{
		VoiceID:  voiceID,
		AudioURL: referenceURL,
		Name:     displayName,
	})
	s.logger.Infof("训练任务已创建: task=%s voice=%s name=%s duration=%.1fs",
		t.ID, voiceID, displayName, info.Duration)

	go s.runPipeline(t.ID, voiceID, displayName, samplePath, referenceURL)

	return &SubmitResult{
		TaskID:           t.ID,
		VoiceID:          voiceID,
		EstimatedSeconds: estimateTrainingSeconds(info.Duration),
	}, nil
}

// estimateTrainingSeconds 根据样本时长估算训练耗时
func estimateTrainingSeconds(duration float64) int {
	base := 30.0
	factor := duration / 10
	if factor > 2 {
		factor = 2
	}
	return int(base * factor)
}

// runPipeline 在后台执行训练流水线。
// 临时产物在每条退出路径上都会被清理。
func (s *TrainingService) runPipeline(taskID, voiceID, displayName, samplePath, referenceURL string) {
	ctx := context.Background()

	var processedPath string
	defer func() {
		audio.CleanupTempFile(samplePath)
		audio.CleanupTempFile(processedPath)
	}()

	if s.remote != nil {
		s.runRemote(ctx, taskID, voiceID, displayName, referenceURL)
		return
	}

	// 步骤1: 音频预处理
	s.updateProgress(taskID, 20, "预处理音频文件...")
	processedPath, err := s.preprocess(samplePath)
	if err != nil {
		s.failPipeline(taskID, voiceID, WrapError(ErrCodePreprocess, err, "音频预处理失败"))
		return
	}

	// 步骤2: 特征提取
	s.updateProgress(taskID, 40, "提取音频特征...")
	features, err := audio.ExtractFeatures(processedPath)
	if err != nil {
		s.failPipeline(taskID, voiceID, WrapError(ErrCodeFeatureExtraction, err, "特征提取失败"))
		return
	}

	// 步骤3: 模型训练
	s.updateProgress(taskID, 60, "训练声音模型...")
	trained, err := s.trainer.Train(ctx, voiceID, displayName, features, func(progress int, step string) {
		s.updateProgress(taskID, progress, step)
	})
	if err != nil {
		s.failPipeline(taskID, voiceID, WrapError(ErrCodeTraining, err, "训练失败"))
		return
	}

	// 步骤4: 质量门禁
	s.updateProgress(taskID, 85, "验证模型质量...")
	if ok, reason := audio.EvaluateQuality(trained.QualityScore); !ok {
		s.failPipeline(taskID, voiceID, NewError(ErrCodeTraining, "%s", reason))
		return
	}

	// 步骤5: 持久化音色元数据，成功后音色才可用
	s.updateProgress(taskID, 95, "保存模型...")
	if err := s.persistVoice(voiceID, trained); err != nil {
		s.failPipeline(taskID, voiceID, WrapError(ErrCodeStorage, err, "保存音色失败"))
		return
	}

	// 任务先完成，音色再上线
	s.completeTask(taskID, voiceID)
	s.markVoiceReady(voiceID, trained.QualityScore)
}

// preprocess 把样本转换为目标格式，输出到新的临时文件
func (s *TrainingService) preprocess(samplePath string) (string, error) {
	processedPath, err := audio.CreateTempFile(s.cfg.Training.TempDir, ".wav")
	if err != nil {
		return "", err
	}
	if err := audio.Preprocess(samplePath, processedPath); err != nil {
		audio.CleanupTempFile(processedPath)
		return "", err
	}
	return processedPath, nil
}

// persistVoice 把训练产物写入音色目录
func (s *TrainingService) persistVoice(voiceID string, trained *engine.TrainedModel) error {
	voice, err := s.voices.Get(voiceID)
	if err != nil {
		return err
	}

	meta, err := trained.Marshal()
	if err != nil {
		return fmt.Errorf("序列化训练产物失败: %w", err)
	}

	voice.ModelMeta = meta
	voice.QualityScore = trained.QualityScore
	return s.voices.Update(voice)
}

// markVoiceReady 音色上线。只在任务已完成后调用。
func (s *TrainingService) markVoiceReady(voiceID string, qualityScore float64) {
	voice, err := s.voices.Get(voiceID)
	if err != nil {
		s.logger.Errorf("音色上线失败 voice=%s: %v", voiceID, err)
		return
	}
	voice.Status = model.VoiceStatusReady
	voice.QualityScore = qualityScore
	if err := s.voices.Update(voice); err != nil {
		s.logger.Errorf("音色上线失败 voice=%s: %v", voiceID, err)
		return
	}
	s.logger.Infof("音色已上线: voice=%s score=%.2f", voiceID, qualityScore)
}

// runRemote 把训练提交到远程引擎并通过状态桥跟踪
func (s *TrainingService) runRemote(ctx context.Context, taskID, voiceID, displayName, referenceURL string) {
	remoteID, err := s.remote.StartTraining(ctx, voiceID, displayName, referenceURL)
	if err != nil {
		s.failPipeline(taskID, voiceID, WrapError(ErrCodeTraining, err, "提交远程训练任务失败"))
		return
	}

	remote, err := s.bridge.Follow(ctx, taskID, func(ctx context.Context) (*engine.RemoteJobStatus, error) {
		return s.remote.TrainingStatus(ctx, remoteID)
	}, TrainingRetryPolicy)
	if err != nil {
		// 状态桥已把任务置为超时失败，音色同步下线
		s.markVoiceFailed(voiceID, "训练超时")
		return
	}

	if remote.Status == "failed" {
		message := remote.Error
		if message == "" {
			message = "远程训练失败"
		}
		s.failPipeline(taskID, voiceID, NewError(ErrCodeTraining, "%s", message))
		return
	}

	s.completeTask(taskID, voiceID)
	s.markVoiceReady(voiceID, audio.QualityThreshold)
}

func (s *TrainingService) updateProgress(taskID string, progress int, step string) {
	_, err := s.registry.Update(taskID, func(t *task.Task) {
		t.State = task.StateRunning
		if progress > t.Progress {
			t.Progress = progress
		}
		t.CurrentStep = step
	})
	if err != nil {
		s.logger.Warnf("更新训练进度失败 task=%s: %v", taskID, err)
	}
}

func (s *TrainingService) completeTask(taskID, voiceID string) {
	_, err := s.registry.Update(taskID, func(t *task.Task) {
		t.State = task.StateCompleted
		t.CurrentStep = "训练完成"
		t.Output = &task.Output{VoiceID: voiceID}
	})
	if err != nil {
		s.logger.Errorf("标记训练任务完成失败 task=%s: %v", taskID, err)
		return
	}
	s.logger.Infof("训练任务完成: task=%s voice=%s", taskID, voiceID)
}

// failPipeline 任务置为失败，音色同步下线
func (s *TrainingService) failPipeline(taskID, voiceID string, cause *ServiceError) {
	_, err := s.registry.Update(taskID, func(t *task.Task) {
		t.State = task.StateFailed
		t.Error = &task.Failure{Code: string(cause.Code), Message: cause.Message}
	})
	if err != nil {
		s.logger.Errorf("标记训练任务失败时出错 task=%s: %v", taskID, err)
	}

	s.markVoiceFailed(voiceID, cause.Message)
	s.logger.Warnf("训练任务失败: task=%s voice=%s code=%s msg=%s", taskID, voiceID, cause.Code, cause.Message)
}

func (s *TrainingService) markVoiceFailed(voiceID, reason string) {
	voice, err := s.voices.Get(voiceID)
	if err != nil {
		s.logger.Errorf("标记音色失败时出错 voice=%s: %v", voiceID, err)
		return
	}
	voice.Status = model.VoiceStatusFailed
	voice.ErrorMessage = reason
	if err := s.voices.Update(voice); err != nil {
		s.logger.Errorf("标记音色失败时出错 voice=%s: %v", voiceID, err)
	}
}

// contentTypeFor 根据扩展名推断内容类型
func contentTypeFor(ext string) string {
	switch ext {
	case ".mp3":
		return "audio/mpeg"
	case ".ogg":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	case ".m4a":
		return "audio/mp4"
	default:
		return "audio/wav"
	}
}
