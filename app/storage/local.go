package storage

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"voice-fusion/app/logger"

	"resty.dev/v3"
)

// LocalStorage 基于本地文件系统的对象存储实现。
// 未配置 Blob 令牌时使用，产物通过 /api/audio 路由对外提供。
type LocalStorage struct {
	dir     string
	baseURL string
	client  *resty.Client
	logger  *logger.Logger
}

// NewLocalStorage 创建本地存储实例
func NewLocalStorage(dir, baseURL string, log *logger.Logger) *LocalStorage {
	return &LocalStorage{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  resty.New().SetTimeout(30 * time.Second),
		logger:  log,
	}
}

// Dir 返回本地存储目录
func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) Put(ctx context.Context, data []byte, contentType, pathHint string) (string, error) {
	name := buildObjectName(pathHint, contentType)
	// 对象名中的路径分隔符转为前缀，避免嵌套目录
	name = strings.ReplaceAll(name, "/", "_")

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("创建存储目录失败: %w", err)
	}

	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("写入音频文件失败: %w", err)
	}

	s.logger.Infof("音频已保存到本地: %s (%d 字节)", path, len(data))
	return s.baseURL + "/" + name, nil
}

func (s *LocalStorage) Get(ctx context.Context, url string) ([]byte, error) {
	// 远程 URL 走 HTTP 下载，本地 URL 直接读文件
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		resp, err := s.client.R().SetContext(ctx).Get(url)
		if err != nil {
			return nil, fmt.Errorf("下载音频失败: %w", err)
		}
		if resp.StatusCode() == http.StatusNotFound {
			return nil, ErrObjectNotFound
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("下载音频失败，状态码: %d", resp.StatusCode())
		}
		return resp.Bytes(), nil
	}

	path, err := s.resolve(url)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *LocalStorage) Delete(ctx context.Context, url string) error {
	path, err := s.resolve(url)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrObjectNotFound
		}
		return err
	}
	return nil
}

// resolve 把对外 URL 还原为本地文件路径
func (s *LocalStorage) resolve(url string) (string, error) {
	name := strings.TrimPrefix(url, s.baseURL+"/")
	name = filepath.Base(name) // 防止路径穿越
	if name == "" || name == "." {
		return "", fmt.Errorf("无效的音频 URL: %s", url)
	}
	return filepath.Join(s.dir, name), nil
}
