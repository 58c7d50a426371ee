package service

import (
	"errors"
	"fmt"
)

// ErrorCode 失败分类编码
type ErrorCode string

const (
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"         // 调用方输入非法，不重试
	ErrCodePreprocess        ErrorCode = "PREPROCESS_ERROR"         // 音频预处理失败
	ErrCodeFeatureExtraction ErrorCode = "FEATURE_EXTRACTION_ERROR" // 特征提取失败
	ErrCodeTraining          ErrorCode = "TRAINING_ERROR"           // 训练后端失败
	ErrCodeBackend           ErrorCode = "BACKEND_ERROR"            // 单个合成后端失败，回退链内部恢复
	ErrCodeTimeout           ErrorCode = "TIMEOUT"                  // 超出轮询预算，终态
	ErrCodeStorage           ErrorCode = "STORAGE_ERROR"            // 产物无法持久化，终态
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"                // 任务或音色不存在
)

// ServiceError 带分类编码的结构化错误
type ServiceError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewError 创建带编码的错误
func NewError(code ErrorCode, format string, args ...any) *ServiceError {
	return &ServiceError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError 包装底层错误
func WrapError(code ErrorCode, err error, format string, args ...any) *ServiceError {
	return &ServiceError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf 提取错误的分类编码，无法识别时归为 BACKEND_ERROR
func CodeOf(err error) ErrorCode {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	return ErrCodeBackend
}

// IsValidation 判断是否为输入校验错误
func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeValidation
}

// IsNotFound 判断是否为未找到错误
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}
