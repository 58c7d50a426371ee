package engine

import (
	"context"
	"testing"
	"voice-fusion/app/audio"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVoiceTag(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "zh-CN-XiaoxiaoNeural", ResolveVoiceTag("default"))
	assert.Equal(t, "zh-CN-YunxiNeural", ResolveVoiceTag("dad"))
	// 未知ID回落到默认标签
	assert.Equal(t, DefaultVoiceTag, ResolveVoiceTag("unknown"))

	assert.True(t, IsSystemVoice("teacher"))
	assert.False(t, IsSystemVoice("some-uuid"))
}

func TestSilenceBackendNeverFails(t *testing.T) {
	t.Parallel()

	backend := NewSilenceBackend()
	assert.False(t, backend.RequiresReference())

	result, err := backend.Synthesize(context.Background(), Request{Text: "这是一段测试文本"})
	require.NoError(t, err)
	assert.Equal(t, "audio/wav", result.ContentType)
	assert.Equal(t, "RIFF", string(result.Data[0:4]))
}

func TestSilenceBackendDurationScalesWithText(t *testing.T) {
	t.Parallel()

	backend := NewSilenceBackend()
	short, err := backend.Synthesize(context.Background(), Request{Text: "短"})
	require.NoError(t, err)
	long, err := backend.Synthesize(context.Background(), Request{Text: "这是一段明显更长的测试文本内容，产物时长也应该更长一些"})
	require.NoError(t, err)

	assert.Greater(t, len(long.Data), len(short.Data))
}

func TestSimulatedTrainerProgress(t *testing.T) {
	t.Parallel()

	features := &audio.Features{Duration: 10, QualityScore: 0.95}
	trainer := NewSimulatedTrainer(0)

	var reported []int
	trained, err := trainer.Train(context.Background(), "v1", "测试音色", features, func(progress int, step string) {
		reported = append(reported, progress)
	})
	require.NoError(t, err)

	assert.Equal(t, "v1", trained.VoiceID)
	assert.Equal(t, 0.95, trained.QualityScore)
	assert.Equal(t, 50, trained.TrainingSteps)

	// 进度从60单调推进，不超过80
	require.NotEmpty(t, reported)
	assert.Equal(t, 60, reported[0])
	for i := 1; i < len(reported); i++ {
		assert.GreaterOrEqual(t, reported[i], reported[i-1])
		assert.LessOrEqual(t, reported[i], 80)
	}
}

func TestSimulatedTrainerCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	trainer := NewSimulatedTrainer(0)
	_, err := trainer.Train(ctx, "v1", "测试音色", &audio.Features{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrainedModelMarshal(t *testing.T) {
	t.Parallel()

	m := &TrainedModel{VoiceID: "v1", VoiceName: "测试", ModelType: "simulated", QualityScore: 0.8}
	data, err := m.Marshal()
	require.NoError(t, err)
	assert.Contains(t, data, `"voice_id":"v1"`)
	assert.Contains(t, data, `"model_type":"simulated"`)
}
