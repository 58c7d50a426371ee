package store

import (
	"testing"
	"voice-fusion/app/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *GormVoiceStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Voice{}))

	t.Cleanup(func() {
		db.Exec("DELETE FROM voices")
	})
	return NewGormVoiceStore(db)
}

func TestGormVoiceStoreCRUD(t *testing.T) {
	s := newTestStore(t)

	voice := &model.Voice{
		ID:     "v1",
		Name:   "测试音色",
		Type:   model.VoiceTypeCloned,
		Status: model.VoiceStatusTraining,
	}
	require.NoError(t, s.Create(voice))

	got, err := s.Get("v1")
	require.NoError(t, err)
	assert.Equal(t, "测试音色", got.Name)
	assert.Equal(t, model.VoiceStatusTraining, got.Status)

	got.Status = model.VoiceStatusReady
	got.QualityScore = 0.8
	require.NoError(t, s.Update(got))

	updated, err := s.Get("v1")
	require.NoError(t, err)
	assert.True(t, updated.IsReady())
	assert.Equal(t, 0.8, updated.QualityScore)

	list, err := s.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.Delete("v1"))
	_, err = s.Get("v1")
	assert.ErrorIs(t, err, ErrVoiceNotFound)
}

func TestGormVoiceStoreNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrVoiceNotFound)

	assert.ErrorIs(t, s.Delete("missing"), ErrVoiceNotFound)
}
