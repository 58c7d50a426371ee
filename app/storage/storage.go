package storage

import (
	"context"
	"errors"
)

// ErrObjectNotFound 对象不存在
var ErrObjectNotFound = errors.New("存储对象不存在")

// ObjectStorage 对象存储接口。每次写入使用唯一路径，
// 产物写入后不再修改，可以被多个合成任务并发读取。
type ObjectStorage interface {
	// Put 写入数据并返回可访问的 URL
	Put(ctx context.Context, data []byte, contentType, pathHint string) (string, error)
	// Get 按 URL 读取数据
	Get(ctx context.Context, url string) ([]byte, error)
	// Delete 按 URL 删除对象
	Delete(ctx context.Context, url string) error
}
