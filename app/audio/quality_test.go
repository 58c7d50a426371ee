package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityScoreCleanSample(t *testing.T) {
	t.Parallel()

	info := &Info{Duration: 10, SampleRate: 22050, Channels: 1}
	assert.Equal(t, 1.0, QualityScore(info))
}

func TestQualityScorePenalties(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		info Info
		want float64
	}{
		{"低采样率", Info{Duration: 10, SampleRate: 8000, Channels: 1}, 0.7},
		{"中等采样率", Info{Duration: 10, SampleRate: 16000, Channels: 1}, 0.9},
		{"样本过短", Info{Duration: 4, SampleRate: 22050, Channels: 1}, 0.8},
		{"样本过长", Info{Duration: 45, SampleRate: 22050, Channels: 1}, 0.9},
		{"多声道", Info{Duration: 10, SampleRate: 22050, Channels: 4}, 0.9},
		{"叠加惩罚", Info{Duration: 4, SampleRate: 8000, Channels: 4}, 0.7 * 0.8 * 0.9},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, QualityScore(&tt.info), 1e-9)
		})
	}
}

func TestQualityScoreDeterministic(t *testing.T) {
	t.Parallel()

	info := &Info{Duration: 4, SampleRate: 8000, Channels: 4}
	first := QualityScore(info)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, QualityScore(info))
	}
}

func TestEvaluateQualityThreshold(t *testing.T) {
	t.Parallel()

	// 阈值本身算通过
	ok, reason := EvaluateQuality(QualityThreshold)
	assert.True(t, ok)
	assert.Empty(t, reason)

	ok, reason = EvaluateQuality(0.49)
	assert.False(t, ok)
	assert.NotEmpty(t, reason)

	ok, _ = EvaluateQuality(1.0)
	assert.True(t, ok)
}
