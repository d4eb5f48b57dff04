package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"

	"Weave-Assistant/internal/calc"
	"Weave-Assistant/internal/scheduler"
)

// TaskRegistry 任务工具依赖的注册表切面，由调用方注入
type TaskRegistry interface {
	Schedule(spec scheduler.Spec) (scheduler.Task, error)
	Tasks() []scheduler.Task
	Cancel(id string) bool
}

// ScheduleTaskTool 任务登记工具
type ScheduleTaskTool struct {
	def      mcp.Tool
	registry TaskRegistry
}

// NewScheduleTask 创建任务登记工具
func NewScheduleTask(registry TaskRegistry) *ScheduleTaskTool {
	return &ScheduleTaskTool{
		def: mcp.NewTool("schedule_task",
			mcp.WithDescription("A tool to schedule a task to be executed at a later time"),
			mcp.WithString("type",
				mcp.Description("The type of schedule; use no-schedule when the user asked for no scheduling"),
				mcp.Required(),
				mcp.Enum("no-schedule", "scheduled", "delayed", "cron"),
			),
			mcp.WithString("description",
				mcp.Description("A description of the task"),
				mcp.Required(),
			),
			mcp.WithString("date",
				mcp.Description("The RFC 3339 timestamp for a scheduled task"),
			),
			mcp.WithNumber("delayInSeconds",
				mcp.Description("The number of seconds to wait for a delayed task"),
			),
			mcp.WithString("cron",
				mcp.Description("The standard five-field cron expression for a cron task"),
			),
		),
		registry: registry,
	}
}

// Definition 返回工具声明
func (t *ScheduleTaskTool) Definition() mcp.Tool {
	return t.def
}

// RequiresConfirmation 任务登记自动执行
func (t *ScheduleTaskTool) RequiresConfirmation() bool {
	return false
}

// Handle 按触发方式校验入参并登记任务
func (t *ScheduleTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter \"type\"."), nil
	}
	description, err := req.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter \"description\"."), nil
	}

	spec := scheduler.Spec{Kind: scheduler.Kind(kind), Description: description}

	switch spec.Kind {
	case scheduler.KindNone:
		return mcp.NewToolResultError("Not a valid schedule input."), nil
	case scheduler.KindScheduled:
		raw := req.GetString("date", "")
		at, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid date \"%s\"; expected an RFC 3339 timestamp.", raw)), nil
		}
		spec.At = at
	case scheduler.KindDelayed:
		seconds := req.GetFloat("delayInSeconds", 0)
		if seconds <= 0 {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid delay %s; expected a positive number of seconds.", calc.FormatNumber(seconds))), nil
		}
		spec.Delay = time.Duration(seconds * float64(time.Second))
	case scheduler.KindCron:
		expr := req.GetString("cron", "")
		if expr == "" {
			return mcp.NewToolResultError("Missing required parameter \"cron\"."), nil
		}
		spec.Cron = expr
	default:
		return mcp.NewToolResultError(fmt.Sprintf("Unsupported schedule type \"%s\".", kind)), nil
	}

	task, err := t.registry.Schedule(spec)
	if err != nil {
		return mcp.NewToolResultError(scheduleFailureMessage(err)), nil
	}
	return mcp.NewToolResultText(scheduleConfirmation(task)), nil
}

// scheduleFailureMessage 把注册表错误翻译成面向用户的句子
func scheduleFailureMessage(err error) string {
	var parseErr *scheduler.CronParseError
	switch {
	case errors.As(err, &parseErr):
		return fmt.Sprintf("Invalid cron expression \"%s\": %v.", parseErr.Expr, errors.Unwrap(parseErr))
	case errors.Is(err, scheduler.ErrRegistryFull):
		return "Task limit reached; cancel an existing task before scheduling another."
	default:
		return fmt.Sprintf("Unable to schedule task: %v.", err)
	}
}

// scheduleConfirmation 按触发方式生成确认文本
func scheduleConfirmation(task scheduler.Task) string {
	switch task.Kind {
	case scheduler.KindScheduled:
		return fmt.Sprintf("Task %s scheduled for %s: %s", task.ID, task.NextRun.Format(time.RFC3339), task.Description)
	case scheduler.KindDelayed:
		return fmt.Sprintf("Task %s scheduled to run in %s seconds: %s", task.ID, calc.FormatNumber(task.DelayInSeconds), task.Description)
	case scheduler.KindCron:
		return fmt.Sprintf("Task %s scheduled with cron \"%s\": %s", task.ID, task.Cron, task.Description)
	default:
		return fmt.Sprintf("Task %s scheduled: %s", task.ID, task.Description)
	}
}

// ListTasksTool 任务列表工具
type ListTasksTool struct {
	def      mcp.Tool
	registry TaskRegistry
}

// NewListTasks 创建任务列表工具
func NewListTasks(registry TaskRegistry) *ListTasksTool {
	return &ListTasksTool{
		def: mcp.NewTool("list_scheduled_tasks",
			mcp.WithDescription("A tool to list all tasks that have been scheduled"),
		),
		registry: registry,
	}
}

// Definition 返回工具声明
func (t *ListTasksTool) Definition() mcp.Tool {
	return t.def
}

// RequiresConfirmation 任务列表自动执行
func (t *ListTasksTool) RequiresConfirmation() bool {
	return false
}

// Handle 以 JSON 数组渲染全部任务记录
func (t *ListTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks := t.registry.Tasks()
	if len(tasks) == 0 {
		return mcp.NewToolResultText("No scheduled tasks found."), nil
	}

	payload, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Unable to render task list: %v.", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// CancelTaskTool 任务取消工具
type CancelTaskTool struct {
	def      mcp.Tool
	registry TaskRegistry
}

// NewCancelTask 创建任务取消工具
func NewCancelTask(registry TaskRegistry) *CancelTaskTool {
	return &CancelTaskTool{
		def: mcp.NewTool("cancel_scheduled_task",
			mcp.WithDescription("A tool to cancel a scheduled task by its ID"),
			mcp.WithString("taskId",
				mcp.Description("The ID of the task to cancel"),
				mcp.Required(),
			),
		),
		registry: registry,
	}
}

// Definition 返回工具声明
func (t *CancelTaskTool) Definition() mcp.Tool {
	return t.def
}

// RequiresConfirmation 任务取消自动执行
func (t *CancelTaskTool) RequiresConfirmation() bool {
	return false
}

// Handle 按 ID 取消任务
func (t *CancelTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("taskId")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter \"taskId\"."), nil
	}

	if t.registry.Cancel(id) {
		return mcp.NewToolResultText(fmt.Sprintf("Task %s canceled.", id)), nil
	}
	return mcp.NewToolResultError(fmt.Sprintf("No task found with ID \"%s\".", id)), nil
}
