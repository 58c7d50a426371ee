package service

import (
	"context"
	"strings"
	"time"
	"voice-fusion/app/config"
	"voice-fusion/app/engine"
	"voice-fusion/app/logger"
	"voice-fusion/app/storage"
	"voice-fusion/app/store"
	"voice-fusion/app/task"
)

// Attempt 回退链中一次后端调用的记录。
// 仅用于决定下一步动作和记录日志，不对外暴露。
type Attempt struct {
	Backend  string
	Err      error
	Duration time.Duration
}

// SynthesisService 语音合成服务。按优先级依次尝试配置的后端，
// 第一个成功的后端胜出，占位后端保证链条总能产出可用音频。
type SynthesisService struct {
	cfg      *config.Config
	registry *task.Registry
	voices   store.VoiceStore
	storage  storage.ObjectStorage
	backends []engine.Backend
	remote   *engine.RemoteEngine
	bridge   *StatusBridge
	logger   *logger.Logger
}

// NewSynthesisService 创建合成服务
func NewSynthesisService(
	cfg *config.Config,
	registry *task.Registry,
	voices store.VoiceStore,
	objectStorage storage.ObjectStorage,
	backends []engine.Backend,
	log *logger.Logger,
) *SynthesisService {
	return &SynthesisService{
		cfg:      cfg,
		registry: registry,
		voices:   voices,
		storage:  objectStorage,
		backends: backends,
		logger:   log,
	}
}

// WithRemoteEngine 配置远程引擎，合成将提交到远端并通过状态桥跟踪
func (s *SynthesisService) WithRemoteEngine(remote *engine.RemoteEngine, bridge *StatusBridge) *SynthesisService {
	s.remote = remote
	s.bridge = bridge
	return s
}

// resolvedVoice 音色解析结果
type resolvedVoice struct {
	voiceTag     string // 系统音色的后端原生标签
	referenceURL string // 克隆音色的参考音频地址
}

// Submit 创建一个合成任务并在后台执行，返回任务快照。
// 输入校验失败时不创建任务。
func (s *SynthesisService) Submit(text, voiceID string) (task.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return task.Task{}, NewError(ErrCodeValidation, "文本内容不能为空")
	}
	if len([]rune(text)) > s.cfg.Synthesis.MaxTextLength {
		return task.Task{}, NewError(ErrCodeValidation, "文本长度不能超过%d字符", s.cfg.Synthesis.MaxTextLength)
	}

	if voiceID == "" {
		voiceID = "default"
	}

	resolved, err := s.resolveVoice(voiceID)
	if err != nil {
		return task.Task{}, err
	}

	t := s.registry.Create(task.KindSynthesis, task.Input{Text: text, VoiceID: voiceID})
	s.logger.Infof("合成任务已创建: task=%s voice=%s chars=%d", t.ID, voiceID, len([]rune(text)))

	go s.run(t.ID, text, voiceID, resolved)

	return t, nil
}

// resolveVoice 把音色ID解析为后端原生标签或参考音频地址
func (s *SynthesisService) resolveVoice(voiceID string) (*resolvedVoice, error) {
	voice, err := s.voices.Get(voiceID)
	if err == nil {
		if !voice.IsReady() {
			return nil, NewError(ErrCodeValidation, "音色尚未训练完成")
		}
		return &resolvedVoice{referenceURL: voice.ReferenceURL}, nil
	}
	if err != store.ErrVoiceNotFound {
		return nil, WrapError(ErrCodeStorage, err, "查询音色失败")
	}

	// 系统预设音色不需要参考音频
	if engine.IsSystemVoice(voiceID) {
		return &resolvedVoice{voiceTag: engine.ResolveVoiceTag(voiceID)}, nil
	}

	return nil, NewError(ErrCodeNotFound, "音色不存在")
}

// run 在后台执行合成流水线
func (s *SynthesisService) run(taskID, text, voiceID string, resolved *resolvedVoice) {
	ctx := context.Background()

	s.updateProgress(taskID, task.StateRunning, 10, "准备合成...")

	if s.remote != nil {
		s.runRemote(ctx, taskID, text, voiceID)
		return
	}

	result, method, err := s.attemptChain(ctx, text, resolved)
	if err != nil {
		// 占位后端兜底后这里只剩存储类失败
		s.failTask(taskID, err)
		return
	}

	audioURL, err := s.persistResult(ctx, result)
	if err != nil {
		s.failTask(taskID, WrapError(ErrCodeStorage, err, "合成产物持久化失败"))
		return
	}

	s.completeTask(taskID, audioURL, method)
}

// attemptChain 按优先级依次尝试各个后端，返回第一个成功的产物。
// 每次失败记录为一次 Attempt，只有最后一个后端的失败才向上传播。
func (s *SynthesisService) attemptChain(ctx context.Context, text string, resolved *resolvedVoice) (*engine.Result, string, error) {
	req := engine.Request{
		Text:         text,
		VoiceTag:     resolved.voiceTag,
		ReferenceURL: resolved.referenceURL,
		Language:     s.cfg.Synthesis.Language,
		Speed:        s.cfg.Synthesis.Speed,
	}

	var lastErr error
	for _, backend := range s.backends {
		// 需要参考音频的后端只在有参考音频时参与
		if backend.RequiresReference() && req.ReferenceURL == "" {
			continue
		}

		started := time.Now()
		result, err := backend.Synthesize(ctx, req)
		attempt := Attempt{Backend: backend.Name(), Err: err, Duration: time.Since(started)}

		if err != nil {
			s.logger.Warnf("合成后端失败: backend=%s duration=%s err=%v",
				attempt.Backend, attempt.Duration, attempt.Err)
			lastErr = WrapError(ErrCodeBackend, err, "后端 %s 合成失败", backend.Name())
			continue
		}

		s.logger.Infof("合成后端成功: backend=%s duration=%s", attempt.Backend, attempt.Duration)
		return result, backend.Name(), nil
	}

	if lastErr == nil {
		lastErr = NewError(ErrCodeBackend, "没有可用的合成后端")
	}
	return nil, "", lastErr
}

// persistResult 把产物写入对象存储，返回最终音频地址。
// 后端直接返回 URL 时原样使用，内存数据必须先落盘。
func (s *SynthesisService) persistResult(ctx context.Context, result *engine.Result) (string, error) {
	if result.AudioURL != "" {
		return result.AudioURL, nil
	}
	return s.storage.Put(ctx, result.Data, result.ContentType, "tts")
}

// runRemote 把合成提交到远程引擎并通过状态桥跟踪
func (s *SynthesisService) runRemote(ctx context.Context, taskID, text, voiceID string) {
	remoteID, err := s.remote.StartSynthesis(ctx, text, voiceID)
	if err != nil {
		s.failTask(taskID, WrapError(ErrCodeBackend, err, "提交远程合成任务失败"))
		return
	}

	remote, err := s.bridge.Follow(ctx, taskID, func(ctx context.Context) (*engine.RemoteJobStatus, error) {
		return s.remote.SynthesisStatus(ctx, remoteID)
	}, SynthesisRetryPolicy)
	if err != nil {
		// 状态桥已把任务置为超时失败
		return
	}

	if remote.Status == "failed" {
		message := remote.Error
		if message == "" {
			message = "远程合成失败"
		}
		s.failTask(taskID, NewError(ErrCodeBackend, "%s", message))
		return
	}

	s.completeTask(taskID, remote.AudioURL, "remote")
}

func (s *SynthesisService) updateProgress(taskID string, state task.State, progress int, step string) {
	_, err := s.registry.Update(taskID, func(t *task.Task) {
		t.State = state
		if progress > t.Progress {
			t.Progress = progress
		}
		t.CurrentStep = step
	})
	if err != nil {
		s.logger.Warnf("更新任务进度失败 task=%s: %v", taskID, err)
	}
}

func (s *SynthesisService) completeTask(taskID, audioURL, method string) {
	_, err := s.registry.Update(taskID, func(t *task.Task) {
		t.State = task.StateCompleted
		t.CurrentStep = "合成完成"
		t.Output = &task.Output{AudioURL: audioURL, Method: method}
	})
	if err != nil {
		s.logger.Errorf("标记合成任务完成失败 task=%s: %v", taskID, err)
		return
	}
	s.logger.Infof("合成任务完成: task=%s method=%s url=%s", taskID, method, audioURL)
}

func (s *SynthesisService) failTask(taskID string, cause error) {
	code := CodeOf(cause)
	var svcErr *ServiceError
	message := cause.Error()
	if e, ok := cause.(*ServiceError); ok {
		svcErr = e
		message = svcErr.Message
	}

	_, err := s.registry.Update(taskID, func(t *task.Task) {
		t.State = task.StateFailed
		t.Error = &task.Failure{Code: string(code), Message: message}
	})
	if err != nil {
		s.logger.Errorf("标记合成任务失败时出错 task=%s: %v", taskID, err)
		return
	}
	s.logger.Warnf("合成任务失败: task=%s code=%s msg=%s", taskID, code, message)
}
