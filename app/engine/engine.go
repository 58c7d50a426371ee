package engine

import "context"

// Request 一次合成请求
type Request struct {
	Text         string  // 待合成文本
	VoiceTag     string  // 后端原生音色标签（系统音色）
	ReferenceURL string  // 参考音频地址（克隆音色），可为空
	Language     string  // 语言标签
	Speed        float64 // 语速
}

// Result 一次合成的产物。Data 与 AudioURL 二选一：
// Data 为内存中的音频数据，需要调用方写入对象存储；
// AudioURL 为后端直接返回的可访问地址。
type Result struct {
	Data        []byte
	ContentType string
	AudioURL    string
}

// Backend 合成后端。回退链按优先级依次尝试各个后端，
// 单个后端的失败不会向上传播。
type Backend interface {
	// Name 后端标识，记录在任务结果的 method 字段上
	Name() string
	// RequiresReference 是否需要参考音频才能参与尝试
	RequiresReference() bool
	// Synthesize 执行一次合成
	Synthesize(ctx context.Context, req Request) (*Result, error)
}

// ReferenceFetcher 参考音频下载接口，由对象存储实现
type ReferenceFetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}
