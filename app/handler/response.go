package handler

import (
	"net/http"
	"voice-fusion/app/service"

	"github.com/gin-gonic/gin"
)

// ApiResponse 统一响应结构
type ApiResponse struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody 响应中的错误信息
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// success 创建成功响应
func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, ApiResponse{
		Success: true,
		Data:    data,
	})
}

// fail 创建错误响应，根据错误类别映射HTTP状态码
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case service.IsValidation(err):
		status = http.StatusBadRequest
	case service.IsNotFound(err):
		status = http.StatusNotFound
	}

	message := err.Error()
	if svcErr, ok := err.(*service.ServiceError); ok {
		message = svcErr.Message
	}

	c.JSON(status, ApiResponse{
		Success: false,
		Error: &ErrorBody{
			Code:    string(service.CodeOf(err)),
			Message: message,
		},
	})
}

// failWith 创建指定状态码和错误码的错误响应
func failWith(c *gin.Context, status int, code, message string) {
	c.JSON(status, ApiResponse{
		Success: false,
		Error: &ErrorBody{
			Code:    code,
			Message: message,
		},
	})
}
