package engine

import (
	"context"
	"voice-fusion/app/audio"
)

// SilenceBackend 占位音频后端，回退链的最后一级。
// 根据文本长度生成对应时长的静音，没有任何外部依赖，不会失败。
type SilenceBackend struct{}

// NewSilenceBackend 创建占位音频后端
func NewSilenceBackend() *SilenceBackend {
	return &SilenceBackend{}
}

func (b *SilenceBackend) Name() string {
	return "silence"
}

func (b *SilenceBackend) RequiresReference() bool {
	return false
}

func (b *SilenceBackend) Synthesize(ctx context.Context, req Request) (*Result, error) {
	// 每个字符约 0.1 秒
	duration := float64(len([]rune(req.Text))) * 0.1
	return &Result{
		Data:        audio.SilenceWAV(duration),
		ContentType: "audio/wav",
	}, nil
}
