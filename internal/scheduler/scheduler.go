package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Kind 任务触发方式
type Kind string

const (
	KindNone      Kind = "no-schedule"
	KindScheduled Kind = "scheduled"
	KindDelayed   Kind = "delayed"
	KindCron      Kind = "cron"
)

// ErrRegistryFull 任务数量达到上限
var ErrRegistryFull = errors.New("task registry is full")

// CronParseError cron 表达式无法解析
type CronParseError struct {
	Expr string
	Err  error
}

func (e *CronParseError) Error() string {
	return fmt.Sprintf("parse cron expression %q: %v", e.Expr, e.Err)
}

func (e *CronParseError) Unwrap() error {
	return e.Err
}

// Spec 创建任务的参数
type Spec struct {
	Kind        Kind
	At          time.Time     // scheduled：绝对触发时间
	Delay       time.Duration // delayed：距当前时刻的延迟
	Cron        string        // cron：标准五段表达式
	Description string
}

// Task 一个已登记的任务，ID 对调用方不透明
type Task struct {
	ID             string    `json:"id"`
	Description    string    `json:"description"`
	Kind           Kind      `json:"type"`
	DelayInSeconds float64   `json:"delay_in_seconds,omitempty"`
	Cron           string    `json:"cron,omitempty"`
	NextRun        time.Time `json:"next_run"`
	CreatedAt      time.Time `json:"created_at"`

	schedule cron.Schedule // 仅 cron 任务持有
}

// FireFunc 任务到期回调，在运行器 goroutine 中执行
type FireFunc func(task Task)

// Store 内存任务注册表
type Store struct {
	log      zerolog.Logger
	fire     FireFunc
	maxTasks int

	mu    sync.Mutex
	tasks map[string]*Task
	wake  chan struct{}
	now   func() time.Time
}

// NewStore 创建任务注册表。maxTasks 为 0 表示不限制数量，
// fire 可以为 nil，此时到期任务只记录日志。
func NewStore(log zerolog.Logger, maxTasks int, fire FireFunc) *Store {
	return &Store{
		log:      log,
		fire:     fire,
		maxTasks: maxTasks,
		tasks:    make(map[string]*Task),
		wake:     make(chan struct{}, 1),
		now:      time.Now,
	}
}

// Schedule 校验参数并登记新任务，返回分配了 ID 的任务副本
func (s *Store) Schedule(spec Spec) (Task, error) {
	now := s.now()
	task := Task{
		ID:          uuid.NewString(),
		Description: spec.Description,
		Kind:        spec.Kind,
		CreatedAt:   now,
	}

	switch spec.Kind {
	case KindScheduled:
		if spec.At.IsZero() {
			return Task{}, fmt.Errorf("scheduled task requires a trigger time")
		}
		task.NextRun = spec.At
	case KindDelayed:
		if spec.Delay <= 0 {
			return Task{}, fmt.Errorf("delayed task requires a positive delay")
		}
		task.DelayInSeconds = spec.Delay.Seconds()
		task.NextRun = now.Add(spec.Delay)
	case KindCron:
		schedule, err := cron.ParseStandard(spec.Cron)
		if err != nil {
			return Task{}, &CronParseError{Expr: spec.Cron, Err: err}
		}
		task.Cron = spec.Cron
		task.schedule = schedule
		task.NextRun = schedule.Next(now)
	default:
		return Task{}, fmt.Errorf("kind %q is not schedulable", spec.Kind)
	}

	s.mu.Lock()
	if s.maxTasks > 0 && len(s.tasks) >= s.maxTasks {
		s.mu.Unlock()
		return Task{}, ErrRegistryFull
	}
	stored := task
	s.tasks[task.ID] = &stored
	s.mu.Unlock()

	s.log.Info().
		Str("task_id", task.ID).
		Str("kind", string(task.Kind)).
		Time("next_run", task.NextRun).
		Msg("Task scheduled")

	s.notify()
	return task, nil
}

// Tasks 返回全部任务的副本，按下一次触发时间排序
func (s *Store) Tasks() []Task {
	s.mu.Lock()
	list := make([]Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		list = append(list, *task)
	}
	s.mu.Unlock()

	sort.Slice(list, func(i, j int) bool {
		if !list[i].NextRun.Equal(list[j].NextRun) {
			return list[i].NextRun.Before(list[j].NextRun)
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// Cancel 按 ID 移除任务，返回任务是否存在
func (s *Store) Cancel(id string) bool {
	s.mu.Lock()
	_, exists := s.tasks[id]
	delete(s.tasks, id)
	s.mu.Unlock()

	if exists {
		s.log.Info().Str("task_id", id).Msg("Task canceled")
		s.notify()
	}
	return exists
}

// Count 当前登记的任务数量
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// notify 唤醒运行器重新计算等待时间，从不阻塞
func (s *Store) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
