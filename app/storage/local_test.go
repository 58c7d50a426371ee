package storage

import (
	"context"
	"testing"
	"voice-fusion/app/config"
	"voice-fusion/app/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalStorage(t *testing.T) *LocalStorage {
	t.Helper()
	log := logger.New(config.LogConfig{Level: "error", Format: "text", Output: "stdout"})
	return NewLocalStorage(t.TempDir(), "/api/audio", log)
}

func TestLocalStorageRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestLocalStorage(t)
	ctx := context.Background()

	url, err := s.Put(ctx, []byte("音频数据"), "audio/wav", "tts")
	require.NoError(t, err)
	assert.True(t, len(url) > len("/api/audio/"))

	data, err := s.Get(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, []byte("音频数据"), data)

	require.NoError(t, s.Delete(ctx, url))
	_, err = s.Get(ctx, url)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorageGetMissing(t *testing.T) {
	t.Parallel()

	s := newTestLocalStorage(t)
	_, err := s.Get(context.Background(), "/api/audio/missing.wav")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorageResolveRejectsTraversal(t *testing.T) {
	t.Parallel()

	s := newTestLocalStorage(t)
	ctx := context.Background()

	// 路径穿越的 URL 只会落在存储目录内
	_, err := s.Get(ctx, "/api/audio/../../etc/passwd")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorageObjectNameByContentType(t *testing.T) {
	t.Parallel()

	s := newTestLocalStorage(t)
	ctx := context.Background()

	url, err := s.Put(ctx, []byte("数据"), "audio/mpeg", "")
	require.NoError(t, err)
	assert.Contains(t, url, ".mp3")
}
