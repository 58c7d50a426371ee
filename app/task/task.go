package task

import "time"

// Kind 任务类型
type Kind string

const (
	KindVoiceTraining Kind = "voice_training" // 声音克隆训练
	KindSynthesis     Kind = "synthesis"      // 语音合成
)

// State 任务状态
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// IsTerminal 判断是否为终态
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Input 任务输入载荷
type Input struct {
	Text     string `json:"text,omitempty"`      // 合成任务：待合成文本
	VoiceID  string `json:"voice_id,omitempty"`  // 合成任务：音色ID / 训练任务：新音色ID
	AudioURL string `json:"audio_url,omitempty"` // 训练任务：样本音频地址
	Name     string `json:"name,omitempty"`      // 训练任务：音色名称
}

// Output 任务结果，仅在任务完成时设置
type Output struct {
	AudioURL string `json:"audio_url,omitempty"` // 合成任务：产物音频地址
	Method   string `json:"method,omitempty"`    // 合成任务：胜出的后端名称
	VoiceID  string `json:"voice_id,omitempty"`  // 训练任务：训练完成的音色ID
}

// Failure 结构化失败原因，仅在任务失败时设置
type Failure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Task 可跟踪的异步工作单元
type Task struct {
	ID          string     `json:"id"`
	Kind        Kind       `json:"kind"`
	State       State      `json:"state"`
	Progress    int        `json:"progress"`
	CurrentStep string     `json:"current_step,omitempty"`
	Input       Input      `json:"input"`
	Output      *Output    `json:"output,omitempty"`
	Error       *Failure   `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// clone 返回任务的深拷贝，调用方不会观察到写入中途的状态
func (t *Task) clone() Task {
	copied := *t
	if t.Output != nil {
		out := *t.Output
		copied.Output = &out
	}
	if t.Error != nil {
		failure := *t.Error
		copied.Error = &failure
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		copied.CompletedAt = &at
	}
	return copied
}
