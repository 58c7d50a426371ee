package handler

import (
	"io"
	"net/http"
	"voice-fusion/app/service"

	"github.com/gin-gonic/gin"
)

// VoiceHandler 音色管理处理器
type VoiceHandler struct {
	training  *service.TrainingService
	voices    *service.VoiceService
	maxUpload int64
}

// NewVoiceHandler 创建音色管理处理器
func NewVoiceHandler(training *service.TrainingService, voices *service.VoiceService, maxUpload int64) *VoiceHandler {
	return &VoiceHandler{
		training:  training,
		voices:    voices,
		maxUpload: maxUpload,
	}
}

// CreateVoice 上传音频样本并发起声音克隆训练
func (h *VoiceHandler) CreateVoice(c *gin.Context) {
	name := c.PostForm("name")

	fileHeader, err := c.FormFile("audio_file")
	if err != nil {
		failWith(c, http.StatusBadRequest, string(service.ErrCodeValidation), "缺少音频文件")
		return
	}

	// 入口先按声明的大小拦截，流水线内还会再校验一次
	if h.maxUpload > 0 && fileHeader.Size > h.maxUpload {
		failWith(c, http.StatusBadRequest, string(service.ErrCodeValidation), "文件过大")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		failWith(c, http.StatusBadRequest, string(service.ErrCodeValidation), "无法读取上传文件")
		return
	}
	defer file.Close()

	audioData, err := io.ReadAll(file)
	if err != nil {
		failWith(c, http.StatusBadRequest, string(service.ErrCodeValidation), "无法读取上传文件")
		return
	}

	result, err := h.training.Submit(audioData, fileHeader.Filename, name)
	if err != nil {
		fail(c, err)
		return
	}

	success(c, result)
}

// ListVoices 获取可用音色列表
func (h *VoiceHandler) ListVoices(c *gin.Context) {
	voices, err := h.voices.List()
	if err != nil {
		fail(c, err)
		return
	}
	success(c, gin.H{"voices": voices})
}

// DeleteVoice 删除克隆音色
func (h *VoiceHandler) DeleteVoice(c *gin.Context) {
	if err := h.voices.Delete(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	success(c, gin.H{"deleted": true})
}
