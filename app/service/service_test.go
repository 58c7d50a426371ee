package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
	"voice-fusion/app/audio"
	"voice-fusion/app/config"
	"voice-fusion/app/engine"
	"voice-fusion/app/logger"
	"voice-fusion/app/model"
	"voice-fusion/app/storage"
	"voice-fusion/app/store"
	"voice-fusion/app/task"

	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Training: config.TrainingConfig{
			MaxUploadSize: 10 * 1024 * 1024,
			MinDuration:   3,
			MaxDuration:   60,
			StepInterval:  0,
			TempDir:       t.TempDir(),
		},
		Synthesis: config.SynthesisConfig{
			MaxTextLength: 500,
			Speed:         1.0,
			Language:      "zh",
		},
		Task: config.TaskConfig{RetentionHours: 1},
	}
}

func testLogger() *logger.Logger {
	return logger.New(config.LogConfig{Level: "error", Format: "text", Output: "stdout"})
}

// waitTerminal 等待后台流水线把任务推进到终态
func waitTerminal(t *testing.T, r *task.Registry, id string) task.Task {
	t.Helper()
	var got task.Task
	require.Eventually(t, func() bool {
		snapshot, err := r.Get(id)
		if err != nil {
			return false
		}
		got = snapshot
		return got.State.IsTerminal()
	}, 5*time.Second, 10*time.Millisecond)
	return got
}

// fakeVoiceStore 内存音色目录
type fakeVoiceStore struct {
	mu     sync.Mutex
	voices map[string]model.Voice
}

func newFakeVoiceStore() *fakeVoiceStore {
	return &fakeVoiceStore{voices: make(map[string]model.Voice)}
}

func (f *fakeVoiceStore) Create(v *model.Voice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voices[v.ID] = *v
	return nil
}

func (f *fakeVoiceStore) Get(id string) (*model.Voice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.voices[id]
	if !ok {
		return nil, store.ErrVoiceNotFound
	}
	copied := v
	return &copied, nil
}

func (f *fakeVoiceStore) List() ([]model.Voice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]model.Voice, 0, len(f.voices))
	for _, v := range f.voices {
		result = append(result, v)
	}
	return result, nil
}

func (f *fakeVoiceStore) Update(v *model.Voice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.voices[v.ID]; !ok {
		return store.ErrVoiceNotFound
	}
	f.voices[v.ID] = *v
	return nil
}

func (f *fakeVoiceStore) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.voices[id]; !ok {
		return store.ErrVoiceNotFound
	}
	delete(f.voices, id)
	return nil
}

func (f *fakeVoiceStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.voices)
}

// fakeStorage 内存对象存储
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Put(ctx context.Context, data []byte, contentType, pathHint string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return "", f.putErr
	}
	url := fmt.Sprintf("/api/audio/%s-%d.wav", pathHint, len(f.objects))
	f.objects[url] = data
	return url, nil
}

func (f *fakeStorage) Get(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[url]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (f *fakeStorage) Delete(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, url)
	return nil
}

func (f *fakeStorage) get(url string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[url]
	return data, ok
}

// fakeBackend 可编程的合成后端
type fakeBackend struct {
	name     string
	needsRef bool
	err      error

	mu    sync.Mutex
	calls int
}

func (f *fakeBackend) Name() string            { return f.name }
func (f *fakeBackend) RequiresReference() bool { return f.needsRef }

func (f *fakeBackend) Synthesize(ctx context.Context, req engine.Request) (*engine.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &engine.Result{Data: []byte(f.name), ContentType: "audio/wav"}, nil
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeTrainer 可编程的训练后端
type fakeTrainer struct {
	score float64
	err   error
}

func (f *fakeTrainer) Train(ctx context.Context, voiceID, voiceName string, features *audio.Features, report engine.ProgressFunc) (*engine.TrainedModel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &engine.TrainedModel{
		VoiceID:      voiceID,
		VoiceName:    voiceName,
		Features:     features,
		ModelType:    "fake",
		QualityScore: f.score,
		Version:      "1.0",
		CreatedAt:    time.Now(),
	}, nil
}

// fakeClock 立即触发的时钟，轮询测试不需要真实等待
type fakeClock struct {
	mu    sync.Mutex
	ticks int
}

func (f *fakeClock) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	f.ticks++
	f.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}
