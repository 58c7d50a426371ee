package engine

import (
	"context"
	"fmt"
	"time"
	"voice-fusion/app/logger"

	"resty.dev/v3"
)

// 系统音色到后端原生音色标签的映射
var neuralVoiceTags = map[string]string{
	"default": "zh-CN-XiaoxiaoNeural",
	"teacher": "zh-CN-XiaoyiNeural",
	"mom":     "zh-CN-XiaohanNeural",
	"dad":     "zh-CN-YunxiNeural",
}

// DefaultVoiceTag 未匹配到音色时使用的标签
const DefaultVoiceTag = "zh-CN-XiaoxiaoNeural"

// ResolveVoiceTag 把系统音色ID解析为后端原生标签
func ResolveVoiceTag(voiceID string) string {
	if tag, ok := neuralVoiceTags[voiceID]; ok {
		return tag
	}
	return DefaultVoiceTag
}

// IsSystemVoice 判断ID是否为系统预设音色
func IsSystemVoice(voiceID string) bool {
	_, ok := neuralVoiceTags[voiceID]
	return ok
}

// SystemVoiceNames 系统预设音色的显示名称
func SystemVoiceNames() map[string]string {
	return map[string]string{
		"default": "默认音色",
		"teacher": "老师",
		"mom":     "妈妈",
		"dad":     "爸爸",
	}
}

// NeuralBackend 通用神经网络 TTS 后端。
// 不需要参考音频，按音色标签合成。
type NeuralBackend struct {
	url    string
	client *resty.Client
	logger *logger.Logger
}

// NewNeuralBackend 创建通用 TTS 后端
func NewNeuralBackend(url string, timeout time.Duration, log *logger.Logger) *NeuralBackend {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &NeuralBackend{
		url:    url,
		client: resty.New().SetTimeout(timeout),
		logger: log,
	}
}

func (b *NeuralBackend) Name() string {
	return "edge-tts"
}

func (b *NeuralBackend) RequiresReference() bool {
	return false
}

func (b *NeuralBackend) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if b.url == "" {
		return nil, fmt.Errorf("未配置通用 TTS 后端地址")
	}

	voiceTag := req.VoiceTag
	if voiceTag == "" {
		voiceTag = DefaultVoiceTag
	}

	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"text":  req.Text,
			"voice": voiceTag,
		}).
		Post(b.url)
	if err != nil {
		return nil, fmt.Errorf("调用 TTS 后端失败: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("TTS 后端返回状态码 %d", resp.StatusCode())
	}

	data := resp.Bytes()
	if len(data) == 0 {
		return nil, fmt.Errorf("TTS 后端返回空数据")
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	return &Result{Data: data, ContentType: contentType}, nil
}
