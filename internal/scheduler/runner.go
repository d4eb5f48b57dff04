package scheduler

import (
	"context"
	"time"
)

// 没有任务时运行器的兜底等待时间，新任务通过 wake 通道即时唤醒
const idleWait = time.Minute

// Run 驱动任务触发循环，直到 ctx 结束。
// 到期的一次性任务触发后移除，cron 任务计算下一次触发时间后保留。
func (s *Store) Run(ctx context.Context) {
	s.log.Info().Msg("Task runner started")

	for {
		timer := time.NewTimer(s.untilNext())

		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info().Msg("Task runner stopped")
			return
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
			s.fireDue()
		}
	}
}

// untilNext 距最早一次触发的等待时间
func (s *Store) untilNext() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next time.Time
	for _, task := range s.tasks {
		if next.IsZero() || task.NextRun.Before(next) {
			next = task.NextRun
		}
	}
	if next.IsZero() {
		return idleWait
	}

	wait := next.Sub(s.now())
	if wait < 0 {
		return 0
	}
	return wait
}

// fireDue 触发所有到期任务，回调在锁外执行
func (s *Store) fireDue() {
	now := s.now()

	s.mu.Lock()
	var due []Task
	for id, task := range s.tasks {
		if task.NextRun.After(now) {
			continue
		}
		due = append(due, *task)
		if task.schedule != nil {
			task.NextRun = task.schedule.Next(now)
		} else {
			delete(s.tasks, id)
		}
	}
	s.mu.Unlock()

	for _, task := range due {
		s.log.Info().
			Str("task_id", task.ID).
			Str("description", task.Description).
			Msg("Task due")
		if s.fire != nil {
			s.fire(task)
		}
	}
}
