package engine

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"
	"voice-fusion/app/logger"

	"resty.dev/v3"
)

// CloneBackend 克隆合成后端，调用 OpenVoice 风格的公开推理服务。
// 需要参考音频，依次尝试配置的每个服务地址。
type CloneBackend struct {
	spaces  []string
	fetcher ReferenceFetcher
	client  *resty.Client
	logger  *logger.Logger
}

// predictPayload Gradio /api/predict 请求体
type predictPayload struct {
	FnIndex int   `json:"fn_index"`
	Data    []any `json:"data"`
}

// predictResponse Gradio /api/predict 响应体
type predictResponse struct {
	Data []any `json:"data"`
}

// NewCloneBackend 创建克隆合成后端
func NewCloneBackend(spaces []string, fetcher ReferenceFetcher, timeout time.Duration, log *logger.Logger) *CloneBackend {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &CloneBackend{
		spaces:  spaces,
		fetcher: fetcher,
		client:  resty.New().SetTimeout(timeout),
		logger:  log,
	}
}

func (b *CloneBackend) Name() string {
	return "openvoice"
}

func (b *CloneBackend) RequiresReference() bool {
	return true
}

func (b *CloneBackend) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if req.ReferenceURL == "" {
		return nil, fmt.Errorf("克隆合成需要参考音频")
	}

	// 下载参考音频
	refAudio, err := b.fetcher.Get(ctx, req.ReferenceURL)
	if err != nil {
		return nil, fmt.Errorf("下载参考音频失败: %w", err)
	}

	payload := predictPayload{
		FnIndex: 0,
		Data: []any{
			req.Text,
			req.Language,
			map[string]string{
				"name": "ref.wav",
				"data": "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(refAudio),
			},
			req.Speed,
			"default", // 风格
		},
	}

	var lastErr error
	for _, space := range b.spaces {
		result, err := b.predict(ctx, space, payload)
		if err != nil {
			b.logger.Warnf("调用克隆合成服务失败 %s: %v", space, err)
			lastErr = err
			continue
		}
		return result, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("未配置克隆合成服务地址")
	}
	return nil, lastErr
}

// predict 调用单个服务地址并解析返回的音频
func (b *CloneBackend) predict(ctx context.Context, space string, payload predictPayload) (*Result, error) {
	var parsed predictResponse

	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		SetResult(&parsed).
		Post(strings.TrimRight(space, "/") + "/api/predict")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("服务返回状态码 %d", resp.StatusCode())
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("服务返回为空")
	}

	// data[0] 可能是 base64 音频或直接 URL
	first, ok := parsed.Data[0].(string)
	if !ok {
		return nil, fmt.Errorf("无法解析服务返回")
	}

	if strings.HasPrefix(first, "data:audio") {
		parts := strings.SplitN(first, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("无效的内联音频数据")
		}
		audioBytes, err := base64.StdEncoding.DecodeString(parts[1])
		if err != nil {
			return nil, fmt.Errorf("解码内联音频失败: %w", err)
		}
		return &Result{Data: audioBytes, ContentType: "audio/wav"}, nil
	}

	if strings.HasPrefix(first, "http") {
		return &Result{AudioURL: first}, nil
	}

	return nil, fmt.Errorf("无法识别的返回格式")
}
