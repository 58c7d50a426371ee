package audio

// 质量分数阈值，低于该值的训练产物不允许上线
const QualityThreshold = 0.5

// QualityScore 根据音频信息计算质量分数 (0-1)。
// 各项惩罚因子相乘，相同输入得到相同分数。
func QualityScore(info *Info) float64 {
	score := 1.0

	// 采样率评分
	if info.SampleRate < 16000 {
		score *= 0.7
	} else if info.SampleRate < 22050 {
		score *= 0.9
	}

	// 时长评分
	if info.Duration < 5 {
		score *= 0.8
	} else if info.Duration > 30 {
		score *= 0.9
	}

	// 声道数评分
	if info.Channels > 2 {
		score *= 0.9
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0.0 {
		score = 0.0
	}
	return score
}

// EvaluateQuality 质量门禁：分数达到阈值才接受，否则返回拒绝原因
func EvaluateQuality(score float64) (bool, string) {
	if score < QualityThreshold {
		return false, "音频质量不足，建议重新录制更清晰的音频"
	}
	return true, ""
}
