package handler

import (
	"net/http"
	"path/filepath"
	"strings"
	"voice-fusion/app/service"
	"voice-fusion/app/storage"

	"github.com/gin-gonic/gin"
)

// AudioHandler 本地音频文件访问处理器。
// 只在本地存储模式下挂载，Blob 存储的音频直接走外部URL。
type AudioHandler struct {
	local *storage.LocalStorage
}

// NewAudioHandler 创建本地音频文件访问处理器
func NewAudioHandler(local *storage.LocalStorage) *AudioHandler {
	return &AudioHandler{local: local}
}

// ServeAudio 返回本地存储的音频文件
func (h *AudioHandler) ServeAudio(c *gin.Context) {
	// 文件名只取基础部分，拒绝路径穿越
	name := filepath.Base(c.Param("filename"))
	if name == "." || name == "/" || strings.Contains(name, "..") {
		failWith(c, http.StatusBadRequest, string(service.ErrCodeValidation), "无效的文件名")
		return
	}

	c.File(filepath.Join(h.local.Dir(), name))
}
