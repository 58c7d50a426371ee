package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// PitchStats 基频统计
type PitchStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// EnergyStats 能量统计
type EnergyStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Features 音频特征摘要，训练后端的输入
type Features struct {
	Pitch        PitchStats  `json:"pitch"`
	Energy       EnergyStats `json:"energy"`
	Duration     float64     `json:"duration"`
	QualityScore float64     `json:"quality_score"`
}

// ExtractFeatures 从预处理后的音频中提取特征摘要。
// WAV 文件计算真实的能量和过零率统计，其他格式使用标称值。
func ExtractFeatures(path string) (*Features, error) {
	info, err := Probe(path)
	if err != nil {
		return nil, fmt.Errorf("读取音频信息失败: %w", err)
	}

	features := &Features{
		// 标称值，样本不可解析为 PCM 时使用
		Pitch:        PitchStats{Mean: 150.0, Std: 20.0, Min: 100.0, Max: 200.0},
		Energy:       EnergyStats{Mean: 0.5, Std: 0.1},
		Duration:     info.Duration,
		QualityScore: QualityScore(info),
	}

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		if pitch, energy, err := analyzeWAV(path, info); err == nil {
			features.Pitch = pitch
			features.Energy = energy
		}
	}

	return features, nil
}

// analyzeWAV 对 16 位 PCM 数据分帧计算过零率基频估计和 RMS 能量
func analyzeWAV(path string, info *Info) (PitchStats, EnergyStats, error) {
	samples, err := readPCM16(path)
	if err != nil {
		return PitchStats{}, EnergyStats{}, err
	}
	if len(samples) == 0 {
		return PitchStats{}, EnergyStats{}, fmt.Errorf("音频没有采样数据")
	}

	frameSize := info.SampleRate / 20 // 50ms 帧
	if frameSize <= 0 {
		frameSize = 1024
	}

	var pitches, energies []float64
	for start := 0; start+frameSize <= len(samples); start += frameSize {
		frame := samples[start : start+frameSize]

		var sumSquares float64
		crossings := 0
		for i, s := range frame {
			v := float64(s) / 32768.0
			sumSquares += v * v
			if i > 0 && (frame[i-1] >= 0) != (s >= 0) {
				crossings++
			}
		}

		rms := math.Sqrt(sumSquares / float64(len(frame)))
		energies = append(energies, rms)

		// 静音帧不参与基频统计
		if rms > 0.01 {
			pitch := float64(crossings) * float64(info.SampleRate) / (2.0 * float64(len(frame)))
			pitches = append(pitches, pitch)
		}
	}

	if len(energies) == 0 {
		return PitchStats{}, EnergyStats{}, fmt.Errorf("音频过短，无法分帧")
	}

	energyMean, energyStd := meanStd(energies)
	energy := EnergyStats{Mean: energyMean, Std: energyStd}

	if len(pitches) == 0 {
		// 全静音样本，给出零基频统计
		return PitchStats{}, energy, nil
	}

	pitchMean, pitchStd := meanStd(pitches)
	pitchMin, pitchMax := pitches[0], pitches[0]
	for _, p := range pitches {
		if p < pitchMin {
			pitchMin = p
		}
		if p > pitchMax {
			pitchMax = p
		}
	}

	return PitchStats{Mean: pitchMean, Std: pitchStd, Min: pitchMin, Max: pitchMax}, energy, nil
}

// readPCM16 读取 WAV 文件 data 块中的 16 位采样
func readPCM16(path string) ([]int16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("不是有效的 WAV 文件")
	}

	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		offset += 8

		if chunkID == "data" {
			end := offset + chunkSize
			if end > len(data) {
				end = len(data)
			}
			raw := data[offset:end]
			samples := make([]int16, len(raw)/2)
			for i := range samples {
				samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2 : i*2+2]))
			}
			return samples, nil
		}
		offset += chunkSize
	}
	return nil, fmt.Errorf("未找到 data 块")
}

func meanStd(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))

	return mean, math.Sqrt(variance)
}
