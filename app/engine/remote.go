package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
	"voice-fusion/app/logger"

	"resty.dev/v3"
)

// RemoteJobStatus 远程任务的状态快照
type RemoteJobStatus struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	AudioURL string `json:"audio_url"`
	Error    string `json:"error_message"`
}

// Terminal 判断远程任务是否已到终态
func (s *RemoteJobStatus) Terminal() bool {
	return s.Status == "completed" || s.Status == "failed"
}

// remoteEnvelope 远程引擎的统一响应格式
type remoteEnvelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// RemoteEngine 独立部署的AI引擎客户端。训练和合成在远端异步执行，
// 本地通过状态桥轮询远程任务并回写本地任务。
type RemoteEngine struct {
	baseURL string
	client  *resty.Client
	logger  *logger.Logger
}

// NewRemoteEngine 创建远程引擎客户端
func NewRemoteEngine(baseURL string, log *logger.Logger) *RemoteEngine {
	return &RemoteEngine{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  resty.New().SetTimeout(30 * time.Second),
		logger:  log,
	}
}

// StartTraining 提交远程训练任务，返回远程任务ID
func (e *RemoteEngine) StartTraining(ctx context.Context, voiceID, voiceName, referenceURL string) (string, error) {
	var result remoteEnvelope[struct {
		TaskID string `json:"clone_task_id"`
	}]

	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"voice_id":   voiceID,
			"voice_name": voiceName,
			"audio_url":  referenceURL,
		}).
		SetResult(&result).
		Post(e.baseURL + "/voice/clone")
	if err != nil {
		return "", fmt.Errorf("提交远程训练任务失败: %w", err)
	}
	if resp.StatusCode() != 200 || !result.Success {
		return "", fmt.Errorf("远程引擎拒绝训练任务，状态码: %d", resp.StatusCode())
	}
	return result.Data.TaskID, nil
}

// TrainingStatus 查询远程训练任务状态
func (e *RemoteEngine) TrainingStatus(ctx context.Context, remoteID string) (*RemoteJobStatus, error) {
	return e.queryStatus(ctx, e.baseURL+"/voice/clone/status/"+remoteID)
}

// StartSynthesis 提交远程合成任务，返回远程任务ID
func (e *RemoteEngine) StartSynthesis(ctx context.Context, text, voiceID string) (string, error) {
	var result remoteEnvelope[struct {
		TaskID string `json:"task_id"`
	}]

	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"text":     text,
			"voice_id": voiceID,
		}).
		SetResult(&result).
		Post(e.baseURL + "/tts/convert")
	if err != nil {
		return "", fmt.Errorf("提交远程合成任务失败: %w", err)
	}
	if resp.StatusCode() != 200 || !result.Success {
		return "", fmt.Errorf("远程引擎拒绝合成任务，状态码: %d", resp.StatusCode())
	}
	return result.Data.TaskID, nil
}

// SynthesisStatus 查询远程合成任务状态
func (e *RemoteEngine) SynthesisStatus(ctx context.Context, remoteID string) (*RemoteJobStatus, error) {
	return e.queryStatus(ctx, e.baseURL+"/tts/status/"+remoteID)
}

func (e *RemoteEngine) queryStatus(ctx context.Context, url string) (*RemoteJobStatus, error) {
	var result remoteEnvelope[RemoteJobStatus]

	resp, err := e.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("查询远程任务状态失败: %w", err)
	}
	if resp.StatusCode() != 200 || !result.Success {
		return nil, fmt.Errorf("查询远程任务状态失败，状态码: %d", resp.StatusCode())
	}

	status := result.Data
	return &status, nil
}
