package handler

import (
	"net/http"
	"voice-fusion/app/service"

	"github.com/gin-gonic/gin"
)

// TTSHandler 语音合成处理器
type TTSHandler struct {
	synthesis *service.SynthesisService
}

// NewTTSHandler 创建语音合成处理器
func NewTTSHandler(synthesis *service.SynthesisService) *TTSHandler {
	return &TTSHandler{synthesis: synthesis}
}

// SynthesizeRequest 合成请求体
type SynthesizeRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
}

// Synthesize 提交语音合成任务
func (h *TTSHandler) Synthesize(c *gin.Context) {
	var req SynthesizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failWith(c, http.StatusBadRequest, string(service.ErrCodeValidation), "请求体格式错误")
		return
	}

	t, err := h.synthesis.Submit(req.Text, req.VoiceID)
	if err != nil {
		fail(c, err)
		return
	}

	success(c, gin.H{
		"task_id": t.ID,
		"state":   t.State,
	})
}
