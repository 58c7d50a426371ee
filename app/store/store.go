package store

import (
	"errors"
	"voice-fusion/app/model"
)

// ErrVoiceNotFound 音色不存在
var ErrVoiceNotFound = errors.New("音色不存在")

// VoiceStore 音色目录的持久化接口。
// 编排逻辑只依赖这个窄接口，底层存储引擎可以替换。
type VoiceStore interface {
	Create(v *model.Voice) error
	Get(id string) (*model.Voice, error)
	List() ([]model.Voice, error)
	Update(v *model.Voice) error
	Delete(id string) error
}
