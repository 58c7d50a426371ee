package audio

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// 预处理目标格式，克隆引擎推荐的采样率和声道数
const (
	TargetSampleRate = 22050
	TargetChannels   = 1
)

// SupportedFormats 支持上传的音频容器格式
var SupportedFormats = []string{".wav", ".mp3", ".m4a", ".flac", ".ogg"}

// Info 音频文件基本信息
type Info struct {
	Duration   float64 `json:"duration"`    // 秒
	SampleRate int     `json:"sample_rate"` // Hz
	Channels   int     `json:"channels"`
	FileSize   int64   `json:"file_size"`
	Format     string  `json:"format"`
}

// ValidateOptions 上传样本的校验参数
type ValidateOptions struct {
	MaxFileSize int64   // 字节
	MinDuration float64 // 秒
	MaxDuration float64 // 秒
}

// ValidateFile 校验训练样本音频文件，返回音频信息
func ValidateFile(path string, opts ValidateOptions) (*Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("文件不存在: %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !isSupportedFormat(ext) {
		return nil, fmt.Errorf("不支持的文件格式 %s，支持格式：%s", ext, strings.Join(SupportedFormats, ", "))
	}

	if opts.MaxFileSize > 0 && stat.Size() > opts.MaxFileSize {
		return nil, fmt.Errorf("文件过大，请上传小于 %dMB 的音频文件", opts.MaxFileSize/1024/1024)
	}

	info, err := Probe(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取音频文件信息: %w", err)
	}
	info.FileSize = stat.Size()
	info.Format = ext

	if info.Duration < opts.MinDuration {
		return nil, fmt.Errorf("音频时长太短，至少需要 %.0f 秒", opts.MinDuration)
	}
	if info.Duration > opts.MaxDuration {
		return nil, fmt.Errorf("音频时长太长，最多支持 %.0f 秒", opts.MaxDuration)
	}

	return info, nil
}

func isSupportedFormat(ext string) bool {
	for _, f := range SupportedFormats {
		if f == ext {
			return true
		}
	}
	return false
}

// Probe 读取音频文件的时长、采样率和声道数。
// WAV 文件直接解析文件头，其他格式走 ffprobe。
func Probe(path string) (*Info, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		if info, err := parseWAVInfo(path); err == nil {
			return info, nil
		}
	}
	return ffprobeInfo(path)
}

// ffprobeInfo 调用 ffprobe 获取音频信息
func ffprobeInfo(path string) (*Info, error) {
	cmd := exec.Command("ffprobe", "-v", "quiet", "-print_format", "json",
		"-show_format", "-show_streams", path)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe 执行失败: %w", err)
	}

	var probed struct {
		Streams []struct {
			CodecType  string `json:"codec_type"`
			Duration   string `json:"duration"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &probed); err != nil {
		return nil, fmt.Errorf("解析 ffprobe 输出失败: %w", err)
	}

	for _, stream := range probed.Streams {
		if stream.CodecType != "audio" {
			continue
		}
		duration, _ := strconv.ParseFloat(stream.Duration, 64)
		if duration == 0 {
			duration, _ = strconv.ParseFloat(probed.Format.Duration, 64)
		}
		sampleRate, _ := strconv.Atoi(stream.SampleRate)
		return &Info{
			Duration:   duration,
			SampleRate: sampleRate,
			Channels:   stream.Channels,
		}, nil
	}
	return nil, fmt.Errorf("未找到音频流")
}

// parseWAVInfo 解析 WAV 文件头
func parseWAVInfo(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := make([]byte, 12)
	if _, err := f.Read(header); err != nil {
		return nil, err
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, fmt.Errorf("不是有效的 WAV 文件")
	}

	var (
		sampleRate    int
		channels      int
		bitsPerSample int
		dataSize      int64
	)

	// 逐个读取 chunk，找到 fmt 和 data
	chunkHeader := make([]byte, 8)
	for {
		if _, err := f.Read(chunkHeader); err != nil {
			break
		}
		chunkID := string(chunkHeader[0:4])
		chunkSize := int64(binary.LittleEndian.Uint32(chunkHeader[4:8]))

		switch chunkID {
		case "fmt ":
			fmtData := make([]byte, chunkSize)
			if _, err := f.Read(fmtData); err != nil {
				return nil, err
			}
			channels = int(binary.LittleEndian.Uint16(fmtData[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(fmtData[4:8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(fmtData[14:16]))
		case "data":
			dataSize = chunkSize
			if _, err := f.Seek(chunkSize, 1); err != nil {
				return nil, err
			}
		default:
			if _, err := f.Seek(chunkSize, 1); err != nil {
				return nil, err
			}
		}

		if sampleRate > 0 && dataSize > 0 {
			break
		}
	}

	if sampleRate == 0 || channels == 0 || bitsPerSample == 0 {
		return nil, fmt.Errorf("WAV 文件头不完整")
	}

	bytesPerFrame := int64(channels * bitsPerSample / 8)
	duration := float64(dataSize) / float64(int64(sampleRate)*bytesPerFrame)

	return &Info{
		Duration:   duration,
		SampleRate: sampleRate,
		Channels:   channels,
	}, nil
}

// Preprocess 将音频转换为目标采样率和声道数。
// ffmpeg 不可用或转换失败时降级为直接复制原文件。
func Preprocess(inputPath, outputPath string) error {
	cmd := exec.Command("ffmpeg", "-i", inputPath,
		"-ar", strconv.Itoa(TargetSampleRate),
		"-ac", strconv.Itoa(TargetChannels),
		"-acodec", "pcm_s16le",
		"-y", outputPath)
	if err := runWithTimeout(cmd, 30*time.Second); err == nil {
		return nil
	}

	// 降级：直接复制原文件
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("音频预处理失败且无法复制原文件: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("音频预处理失败且无法复制原文件: %w", err)
	}
	return nil
}

// runWithTimeout 执行外部命令并限制最长运行时间
func runWithTimeout(cmd *exec.Cmd, timeout time.Duration) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		_ = cmd.Process.Kill()
		<-done
		return fmt.Errorf("命令执行超时")
	}
}

// CreateTempFile 在指定目录创建临时音频文件并返回路径
func CreateTempFile(dir, suffix string) (string, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	}
	f, err := os.CreateTemp(dir, "audio-*"+suffix)
	if err != nil {
		return "", err
	}
	name := f.Name()
	f.Close()
	return name, nil
}

// CleanupTempFile 清理临时文件，文件不存在时不报错
func CleanupTempFile(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
}
