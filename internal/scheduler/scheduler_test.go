package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSchedule(t *testing.T) {
	t.Run("绝对时间任务", func(t *testing.T) {
		store := NewStore(zerolog.Nop(), 0, nil)
		at := time.Now().Add(time.Hour).Truncate(time.Second)

		task, err := store.Schedule(Spec{Kind: KindScheduled, At: at, Description: "备份数据"})
		require.NoError(t, err)

		assert.NotEmpty(t, task.ID)
		assert.Equal(t, KindScheduled, task.Kind)
		assert.Equal(t, "备份数据", task.Description)
		assert.True(t, task.NextRun.Equal(at))
		assert.Equal(t, 1, store.Count())
	})

	t.Run("延迟任务", func(t *testing.T) {
		store := NewStore(zerolog.Nop(), 0, nil)

		task, err := store.Schedule(Spec{Kind: KindDelayed, Delay: 90 * time.Second, Description: "提醒喝水"})
		require.NoError(t, err)

		assert.Equal(t, float64(90), task.DelayInSeconds)
		assert.WithinDuration(t, time.Now().Add(90*time.Second), task.NextRun, time.Second)
	})

	t.Run("cron 任务", func(t *testing.T) {
		store := NewStore(zerolog.Nop(), 0, nil)

		task, err := store.Schedule(Spec{Kind: KindCron, Cron: "*/5 * * * *", Description: "定时巡检"})
		require.NoError(t, err)

		assert.Equal(t, "*/5 * * * *", task.Cron)
		assert.True(t, task.NextRun.After(time.Now()))
		assert.WithinDuration(t, time.Now(), task.NextRun, 5*time.Minute)
	})

	t.Run("每个任务的 ID 唯一", func(t *testing.T) {
		store := NewStore(zerolog.Nop(), 0, nil)

		first, err := store.Schedule(Spec{Kind: KindDelayed, Delay: time.Minute})
		require.NoError(t, err)
		second, err := store.Schedule(Spec{Kind: KindDelayed, Delay: time.Minute})
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
	})
}

func TestStoreScheduleErrors(t *testing.T) {
	store := NewStore(zerolog.Nop(), 0, nil)

	t.Run("no-schedule 不可登记", func(t *testing.T) {
		_, err := store.Schedule(Spec{Kind: KindNone})
		assert.Error(t, err)
	})

	t.Run("未知触发方式", func(t *testing.T) {
		_, err := store.Schedule(Spec{Kind: Kind("weekly")})
		assert.Error(t, err)
	})

	t.Run("绝对时间缺失", func(t *testing.T) {
		_, err := store.Schedule(Spec{Kind: KindScheduled})
		assert.Error(t, err)
	})

	t.Run("延迟必须为正", func(t *testing.T) {
		_, err := store.Schedule(Spec{Kind: KindDelayed, Delay: -time.Second})
		assert.Error(t, err)

		_, err = store.Schedule(Spec{Kind: KindDelayed})
		assert.Error(t, err)
	})

	t.Run("cron 表达式无法解析", func(t *testing.T) {
		_, err := store.Schedule(Spec{Kind: KindCron, Cron: "not a cron"})
		require.Error(t, err)

		var parseErr *CronParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, "not a cron", parseErr.Expr)
		assert.Error(t, errors.Unwrap(parseErr))
	})

	t.Run("数量达到上限", func(t *testing.T) {
		limited := NewStore(zerolog.Nop(), 1, nil)

		_, err := limited.Schedule(Spec{Kind: KindDelayed, Delay: time.Minute})
		require.NoError(t, err)

		_, err = limited.Schedule(Spec{Kind: KindDelayed, Delay: time.Minute})
		assert.ErrorIs(t, err, ErrRegistryFull)
	})
}

func TestStoreTasksOrdered(t *testing.T) {
	store := NewStore(zerolog.Nop(), 0, nil)
	base := time.Now().Add(time.Hour)

	late, err := store.Schedule(Spec{Kind: KindScheduled, At: base.Add(2 * time.Hour)})
	require.NoError(t, err)
	early, err := store.Schedule(Spec{Kind: KindScheduled, At: base})
	require.NoError(t, err)
	middle, err := store.Schedule(Spec{Kind: KindScheduled, At: base.Add(time.Hour)})
	require.NoError(t, err)

	tasks := store.Tasks()
	require.Len(t, tasks, 3)
	assert.Equal(t, []string{early.ID, middle.ID, late.ID}, []string{tasks[0].ID, tasks[1].ID, tasks[2].ID})
}

func TestStoreCancel(t *testing.T) {
	store := NewStore(zerolog.Nop(), 0, nil)

	task, err := store.Schedule(Spec{Kind: KindDelayed, Delay: time.Minute})
	require.NoError(t, err)

	assert.True(t, store.Cancel(task.ID))
	assert.Equal(t, 0, store.Count())
	assert.False(t, store.Cancel(task.ID))
	assert.False(t, store.Cancel("missing-id"))
}

func TestFireDueRemovesOneShotTask(t *testing.T) {
	var fired []Task
	store := NewStore(zerolog.Nop(), 0, func(task Task) { fired = append(fired, task) })

	current := time.Date(2026, 1, 1, 0, 0, 30, 0, time.UTC)
	store.now = func() time.Time { return current }

	task, err := store.Schedule(Spec{Kind: KindScheduled, At: current.Add(10 * time.Second), Description: "一次性任务"})
	require.NoError(t, err)

	// 未到期时不触发
	store.fireDue()
	assert.Empty(t, fired)

	current = current.Add(11 * time.Second)
	store.fireDue()

	require.Len(t, fired, 1)
	assert.Equal(t, task.ID, fired[0].ID)
	assert.Equal(t, 0, store.Count())
}

func TestFireDueReschedulesCronTask(t *testing.T) {
	var fired []Task
	store := NewStore(zerolog.Nop(), 0, func(task Task) { fired = append(fired, task) })

	current := time.Date(2026, 1, 1, 0, 0, 30, 0, time.UTC)
	store.now = func() time.Time { return current }

	task, err := store.Schedule(Spec{Kind: KindCron, Cron: "* * * * *", Description: "每分钟一次"})
	require.NoError(t, err)
	assert.True(t, task.NextRun.Equal(time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC)))

	current = time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC)
	store.fireDue()

	require.Len(t, fired, 1)
	assert.Equal(t, task.ID, fired[0].ID)

	// cron 任务保留并推进到下一次触发时间
	require.Equal(t, 1, store.Count())
	remaining := store.Tasks()
	assert.True(t, remaining[0].NextRun.Equal(time.Date(2026, 1, 1, 0, 2, 0, 0, time.UTC)))
}

func TestRunFiresScheduledTask(t *testing.T) {
	fired := make(chan Task, 1)
	store := NewStore(zerolog.Nop(), 0, func(task Task) { fired <- task })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go store.Run(ctx)

	_, err := store.Schedule(Spec{Kind: KindScheduled, At: time.Now().Add(50 * time.Millisecond), Description: "ping"})
	require.NoError(t, err)

	select {
	case task := <-fired:
		assert.Equal(t, "ping", task.Description)
	case <-time.After(3 * time.Second):
		t.Fatal("task did not fire")
	}

	assert.Eventually(t, func() bool { return store.Count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestRunCanceledTaskDoesNotFire(t *testing.T) {
	fired := make(chan Task, 1)
	store := NewStore(zerolog.Nop(), 0, func(task Task) { fired <- task })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go store.Run(ctx)

	task, err := store.Schedule(Spec{Kind: KindScheduled, At: time.Now().Add(500 * time.Millisecond), Description: "会被取消"})
	require.NoError(t, err)
	require.True(t, store.Cancel(task.ID))

	select {
	case <-fired:
		t.Fatal("canceled task fired")
	case <-time.After(700 * time.Millisecond):
	}
}
