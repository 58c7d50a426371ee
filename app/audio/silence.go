package audio

import (
	"bytes"
	"encoding/binary"
)

// SilenceWAV 生成指定时长的静音 WAV 数据（22050Hz 单声道 16 位）。
// 占位音频的最终兜底，不依赖任何外部程序。
func SilenceWAV(duration float64) []byte {
	if duration < 1 {
		duration = 1
	}

	frames := int(duration * float64(TargetSampleRate))
	dataSize := frames * 2 // 16位单声道

	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	// fmt 块
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(TargetChannels))
	binary.Write(buf, binary.LittleEndian, uint32(TargetSampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(TargetSampleRate*TargetChannels*2)) // 字节率
	binary.Write(buf, binary.LittleEndian, uint16(TargetChannels*2))                  // 块对齐
	binary.Write(buf, binary.LittleEndian, uint16(16))                                // 位深

	// data 块，全零即静音
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))

	return buf.Bytes()
}
