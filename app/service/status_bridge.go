package service

import (
	"context"
	"time"
	"voice-fusion/app/engine"
	"voice-fusion/app/logger"
	"voice-fusion/app/task"
)

// RetryPolicy 有界轮询策略
type RetryPolicy struct {
	Interval    time.Duration // 轮询间隔
	MaxAttempts int           // 最大轮询次数
}

// 合成任务轮询约60秒，训练任务约10分钟
var (
	SynthesisRetryPolicy = RetryPolicy{Interval: 1 * time.Second, MaxAttempts: 60}
	TrainingRetryPolicy  = RetryPolicy{Interval: 2 * time.Second, MaxAttempts: 300}
)

// Clock 时间抽象，测试中替换为假时钟避免真实等待
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

// realClock 真实时钟
type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// StatusFunc 查询一次远程任务状态
type StatusFunc func(ctx context.Context) (*engine.RemoteJobStatus, error)

// StatusBridge 状态桥。实际工作在独立部署的引擎中执行时，
// 按固定间隔轮询远程任务并把状态回写到本地任务。
// 超出轮询预算后本地任务强制置为失败，之后本地状态即为权威状态。
type StatusBridge struct {
	registry *task.Registry
	clock    Clock
	logger   *logger.Logger
}

// NewStatusBridge 创建状态桥
func NewStatusBridge(registry *task.Registry, log *logger.Logger) *StatusBridge {
	return &StatusBridge{
		registry: registry,
		clock:    realClock{},
		logger:   log,
	}
}

// WithClock 替换时钟实现，供测试注入
func (b *StatusBridge) WithClock(clock Clock) *StatusBridge {
	b.clock = clock
	return b
}

// Follow 轮询远程任务直到终态或预算耗尽，返回最后一次远程状态。
// 查询失败视为瞬时故障，吞掉并计入尝试次数。
func (b *StatusBridge) Follow(ctx context.Context, taskID string, query StatusFunc, policy RetryPolicy) (*engine.RemoteJobStatus, error) {
	var last *engine.RemoteJobStatus

	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		remote, err := query(ctx)
		if err != nil {
			b.logger.Warnf("轮询远程任务状态失败 task=%s attempt=%d: %v", taskID, attempt+1, err)
		} else {
			last = remote
			b.apply(taskID, remote)
			if remote.Terminal() {
				return remote, nil
			}
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-b.clock.After(policy.Interval):
		}
	}

	// 预算耗尽，本地任务强制失败
	b.logger.Warnf("远程任务轮询超时 task=%s attempts=%d", taskID, policy.MaxAttempts)
	b.fail(taskID, NewError(ErrCodeTimeout, "处理超时"))
	return last, NewError(ErrCodeTimeout, "处理超时")
}

// apply 把远程状态的中间进度回写到本地任务
func (b *StatusBridge) apply(taskID string, remote *engine.RemoteJobStatus) {
	_, err := b.registry.Update(taskID, func(t *task.Task) {
		if t.State == task.StatePending {
			t.State = task.StateRunning
		}
		if remote.Progress > t.Progress && remote.Progress <= 100 {
			t.Progress = remote.Progress
		}
	})
	if err != nil {
		b.logger.Warnf("回写远程任务状态失败 task=%s: %v", taskID, err)
	}
}

// fail 把本地任务置为失败
func (b *StatusBridge) fail(taskID string, cause *ServiceError) {
	_, err := b.registry.Update(taskID, func(t *task.Task) {
		t.State = task.StateFailed
		t.Error = &task.Failure{Code: string(cause.Code), Message: cause.Message}
	})
	if err != nil {
		b.logger.Warnf("标记任务失败时出错 task=%s: %v", taskID, err)
	}
}
