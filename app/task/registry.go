package task

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

var (
	// ErrTaskNotFound 任务不存在
	ErrTaskNotFound = errors.New("任务不存在")
	// ErrInvalidTransition 非法的状态变更
	ErrInvalidTransition = errors.New("非法的任务状态变更")
)

// entry 注册表内部条目，每个任务持有自己的互斥锁，
// 同一任务的并发更新串行执行，不同任务互不阻塞。
type entry struct {
	mu   sync.Mutex
	task Task
}

// Registry 任务注册表。任务只存在于内存中，终态任务在保留期后
// 由底层缓存自动回收。所有读取返回快照拷贝。
type Registry struct {
	entries   *cache.Cache
	retention time.Duration
}

// NewRegistry 创建任务注册表，retention 为终态任务的保留时长
func NewRegistry(retention time.Duration) *Registry {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &Registry{
		entries:   cache.New(cache.NoExpiration, 10*time.Minute),
		retention: retention,
	}
}

// Create 创建一个新任务，初始状态为 pending、进度为 0
func (r *Registry) Create(kind Kind, input Input) Task {
	t := Task{
		ID:        uuid.NewString(),
		Kind:      kind,
		State:     StatePending,
		Progress:  0,
		Input:     input,
		CreatedAt: time.Now(),
	}
	r.entries.Set(t.ID, &entry{task: t}, cache.NoExpiration)
	return t
}

// Get 按ID读取任务快照
func (r *Registry) Get(id string) (Task, error) {
	e, err := r.lookup(id)
	if err != nil {
		return Task{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.task.clone(), nil
}

// Update 对任务应用一次变更。mutator 收到任务的拷贝并就地修改，
// 校验通过后才提交。终态任务不可再变更状态，进度不可回退。
func (r *Registry) Update(id string, mutator func(*Task)) (Task, error) {
	e, err := r.lookup(id)
	if err != nil {
		return Task{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	old := e.task
	updated := old.clone()
	mutator(&updated)

	if err := validateTransition(&old, &updated); err != nil {
		return Task{}, err
	}

	// 首次进入终态时固定完成时间；完成的任务进度固定为100
	if updated.State.IsTerminal() && old.CompletedAt == nil {
		now := time.Now()
		updated.CompletedAt = &now
		if updated.State == StateCompleted {
			updated.Progress = 100
		}
		// 终态任务进入保留期，到期后自动回收
		r.entries.Set(id, e, r.retention)
	}

	// 不可变字段以旧值为准
	updated.ID = old.ID
	updated.Kind = old.Kind
	updated.CreatedAt = old.CreatedAt

	e.task = updated
	return updated.clone(), nil
}

// validateTransition 校验一次任务变更是否合法
func validateTransition(old, updated *Task) error {
	if old.State.IsTerminal() && updated.State != old.State {
		return ErrInvalidTransition
	}
	if updated.Progress < old.Progress {
		return ErrInvalidTransition
	}
	if updated.Progress > 100 {
		return ErrInvalidTransition
	}
	// running 不允许回退到 pending
	if old.State == StateRunning && updated.State == StatePending {
		return ErrInvalidTransition
	}
	return nil
}

func (r *Registry) lookup(id string) (*entry, error) {
	v, ok := r.entries.Get(id)
	if !ok {
		return nil, ErrTaskNotFound
	}
	return v.(*entry), nil
}
