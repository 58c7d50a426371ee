package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
	"voice-fusion/app/logger"

	"github.com/google/uuid"
	"resty.dev/v3"
)

// BlobStorage 基于 HTTP Blob 服务的对象存储实现
type BlobStorage struct {
	baseURL string
	token   string
	client  *resty.Client
	logger  *logger.Logger
}

// NewBlobStorage 创建 Blob 存储客户端
func NewBlobStorage(baseURL, token string, log *logger.Logger) *BlobStorage {
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetAuthToken(token)

	return &BlobStorage{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
		logger:  log,
	}
}

func (s *BlobStorage) Put(ctx context.Context, data []byte, contentType, pathHint string) (string, error) {
	filename := buildObjectName(pathHint, contentType)

	var result struct {
		URL string `json:"url"`
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("x-content-type", contentType).
		SetQueryParam("filename", filename).
		SetBody(data).
		SetResult(&result).
		Put(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("上传到 Blob 失败: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("上传到 Blob 失败，状态码: %d", resp.StatusCode())
	}
	if result.URL == "" {
		return "", fmt.Errorf("Blob 服务未返回 URL")
	}

	s.logger.Infof("音频已上传到 Blob: %s (%d 字节)", result.URL, len(data))
	return result.URL, nil
}

func (s *BlobStorage) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("下载音频失败: %w", err)
	}
	if resp.StatusCode() == 404 {
		return nil, ErrObjectNotFound
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("下载音频失败，状态码: %d", resp.StatusCode())
	}
	return resp.Bytes(), nil
}

func (s *BlobStorage) Delete(ctx context.Context, url string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"urls": []string{url}}).
		Post(s.baseURL + "/delete")
	if err != nil {
		return fmt.Errorf("删除 Blob 对象失败: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("删除 Blob 对象失败，状态码: %d", resp.StatusCode())
	}
	return nil
}

// buildObjectName 生成唯一的对象名，扩展名根据内容类型推断
func buildObjectName(pathHint, contentType string) string {
	ext := ".wav"
	switch contentType {
	case "audio/mpeg":
		ext = ".mp3"
	case "audio/ogg":
		ext = ".ogg"
	}

	hint := strings.Trim(pathHint, "/")
	if hint == "" {
		hint = "audio"
	}
	return fmt.Sprintf("%s/%s%s", hint, uuid.NewString(), ext)
}
