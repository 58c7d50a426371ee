package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"voice-fusion/app/audio"
	"voice-fusion/app/config"
	"voice-fusion/app/engine"
	"voice-fusion/app/logger"
	"voice-fusion/app/model"
	"voice-fusion/app/service"
	"voice-fusion/app/storage"
	"voice-fusion/app/store"
	"voice-fusion/app/task"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryVoiceStore 接口级内存实现，处理器测试不依赖数据库
type memoryVoiceStore struct {
	voices map[string]model.Voice
}

func newMemoryVoiceStore() *memoryVoiceStore {
	return &memoryVoiceStore{voices: make(map[string]model.Voice)}
}

func (m *memoryVoiceStore) Create(v *model.Voice) error {
	m.voices[v.ID] = *v
	return nil
}

func (m *memoryVoiceStore) Get(id string) (*model.Voice, error) {
	v, ok := m.voices[id]
	if !ok {
		return nil, store.ErrVoiceNotFound
	}
	copied := v
	return &copied, nil
}

func (m *memoryVoiceStore) List() ([]model.Voice, error) {
	result := make([]model.Voice, 0, len(m.voices))
	for _, v := range m.voices {
		result = append(result, v)
	}
	return result, nil
}

func (m *memoryVoiceStore) Update(v *model.Voice) error {
	m.voices[v.ID] = *v
	return nil
}

func (m *memoryVoiceStore) Delete(id string) error {
	if _, ok := m.voices[id]; !ok {
		return store.ErrVoiceNotFound
	}
	delete(m.voices, id)
	return nil
}

type memoryStorage struct {
	objects map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (m *memoryStorage) Put(_ context.Context, data []byte, _, pathHint string) (string, error) {
	url := "/api/audio/" + pathHint + ".wav"
	m.objects[url] = data
	return url, nil
}

func (m *memoryStorage) Get(_ context.Context, url string) ([]byte, error) {
	data, ok := m.objects[url]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (m *memoryStorage) Delete(_ context.Context, url string) error {
	delete(m.objects, url)
	return nil
}

type testEnv struct {
	router   *gin.Engine
	registry *task.Registry
	voices   *memoryVoiceStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Training: config.TrainingConfig{
			MaxUploadSize: 10 * 1024 * 1024,
			MinDuration:   3,
			MaxDuration:   60,
			TempDir:       t.TempDir(),
		},
		Synthesis: config.SynthesisConfig{MaxTextLength: 500, Speed: 1.0, Language: "zh"},
		Task:      config.TaskConfig{RetentionHours: 1},
	}
	log := logger.New(config.LogConfig{Level: "error", Format: "text", Output: "stdout"})

	registry := task.NewRegistry(time.Hour)
	voices := newMemoryVoiceStore()
	objectStorage := newMemoryStorage()
	backends := []engine.Backend{engine.NewSilenceBackend()}

	synthesis := service.NewSynthesisService(cfg, registry, voices, objectStorage, backends, log)
	training := service.NewTrainingService(cfg, registry, voices, objectStorage, engine.NewSimulatedTrainer(0), log)
	voiceService := service.NewVoiceService(voices, objectStorage, log)

	voiceHandler := NewVoiceHandler(training, voiceService, cfg.Training.MaxUploadSize)
	ttsHandler := NewTTSHandler(synthesis)
	taskHandler := NewTaskHandler(registry)

	router := gin.New()
	api := router.Group("/api")
	api.POST("/voices", voiceHandler.CreateVoice)
	api.GET("/voices", voiceHandler.ListVoices)
	api.DELETE("/voices/:id", voiceHandler.DeleteVoice)
	api.POST("/tts", ttsHandler.Synthesize)
	api.GET("/tasks/:id", taskHandler.GetTask)

	return &testEnv{router: router, registry: registry, voices: voices}
}

func (e *testEnv) do(t *testing.T, method, path string, body []byte, contentType string) (*httptest.ResponseRecorder, ApiResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var envelope ApiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return w, envelope
}

func TestGetTaskEnvelope(t *testing.T) {
	env := newTestEnv(t)
	created := env.registry.Create(task.KindSynthesis, task.Input{Text: "你好"})

	w, envelope := env.do(t, http.MethodGet, "/api/tasks/"+created.ID, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, envelope.Success)
	assert.Nil(t, envelope.Error)

	data := envelope.Data.(map[string]any)
	assert.Equal(t, created.ID, data["id"])
	assert.Equal(t, "pending", data["state"])
}

func TestGetTaskNotFound(t *testing.T) {
	env := newTestEnv(t)

	w, envelope := env.do(t, http.MethodGet, "/api/tasks/no-such-task", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestSynthesizeValidation(t *testing.T) {
	env := newTestEnv(t)

	// 非法JSON
	w, envelope := env.do(t, http.MethodPost, "/api/tts", []byte("{不是json"), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)

	// 空文本
	body, _ := json.Marshal(SynthesizeRequest{Text: "  ", VoiceID: "default"})
	w, envelope = env.do(t, http.MethodPost, "/api/tts", body, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, envelope.Success)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)

	// 超长文本
	body, _ = json.Marshal(SynthesizeRequest{Text: strings.Repeat("你", 501)})
	w, envelope = env.do(t, http.MethodPost, "/api/tts", body, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
}

func TestSynthesizeCreatesTask(t *testing.T) {
	env := newTestEnv(t)

	body, _ := json.Marshal(SynthesizeRequest{Text: "你好世界", VoiceID: "default"})
	w, envelope := env.do(t, http.MethodPost, "/api/tts", body, "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, envelope.Success)

	data := envelope.Data.(map[string]any)
	taskID := data["task_id"].(string)
	require.NotEmpty(t, taskID)

	// 任务立即可查
	w, envelope = env.do(t, http.MethodGet, "/api/tasks/"+taskID, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, envelope.Success)
}

func TestSynthesizeUnknownVoice(t *testing.T) {
	env := newTestEnv(t)

	body, _ := json.Marshal(SynthesizeRequest{Text: "你好", VoiceID: "不存在的音色"})
	w, envelope := env.do(t, http.MethodPost, "/api/tts", body, "application/json")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestListVoices(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.voices.Create(&model.Voice{
		ID:     "v1",
		Name:   "克隆音色",
		Type:   model.VoiceTypeCloned,
		Status: model.VoiceStatusReady,
	}))

	w, envelope := env.do(t, http.MethodGet, "/api/voices", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, envelope.Success)

	data := envelope.Data.(map[string]any)
	list := data["voices"].([]any)
	// 4个系统音色加1个克隆音色
	assert.Len(t, list, 5)
}

func TestCreateVoiceUpload(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("name", "上传测试"))
	part, err := writer.CreateFormFile("audio_file", "sample.wav")
	require.NoError(t, err)
	_, err = part.Write(audio.SilenceWAV(10))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	w, envelope := env.do(t, http.MethodPost, "/api/voices", buf.Bytes(), writer.FormDataContentType())
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, envelope.Success)

	data := envelope.Data.(map[string]any)
	assert.NotEmpty(t, data["task_id"])
	assert.NotEmpty(t, data["voice_id"])
	assert.Equal(t, float64(30), data["estimated_seconds"])
}

func TestCreateVoiceMissingFile(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("name", "没有文件"))
	require.NoError(t, writer.Close())

	w, envelope := env.do(t, http.MethodPost, "/api/voices", buf.Bytes(), writer.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
}

func TestDeleteVoice(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.voices.Create(&model.Voice{
		ID:     "v1",
		Name:   "克隆音色",
		Type:   model.VoiceTypeCloned,
		Status: model.VoiceStatusReady,
	}))

	w, envelope := env.do(t, http.MethodDelete, "/api/voices/v1", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, envelope.Success)

	w, envelope = env.do(t, http.MethodDelete, "/api/voices/v1", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
}
