package handler

import (
	"net/http"
	"voice-fusion/app/service"
	"voice-fusion/app/task"

	"github.com/gin-gonic/gin"
)

// TaskHandler 任务状态查询处理器
type TaskHandler struct {
	registry *task.Registry
}

// NewTaskHandler 创建任务状态查询处理器
func NewTaskHandler(registry *task.Registry) *TaskHandler {
	return &TaskHandler{registry: registry}
}

// GetTask 查询任务快照
func (h *TaskHandler) GetTask(c *gin.Context) {
	t, err := h.registry.Get(c.Param("id"))
	if err != nil {
		failWith(c, http.StatusNotFound, string(service.ErrCodeNotFound), "任务不存在")
		return
	}
	success(c, t)
}
