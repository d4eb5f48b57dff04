package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
)

// LocalTimeTool 本地时间查询工具
type LocalTimeTool struct {
	def mcp.Tool
	log zerolog.Logger
}

// NewLocalTime 创建本地时间查询工具
func NewLocalTime(log zerolog.Logger) *LocalTimeTool {
	return &LocalTimeTool{
		def: mcp.NewTool("get_local_time",
			mcp.WithDescription("Get the local time for a specified location"),
			mcp.WithString("location",
				mcp.Description("The location to get the local time for"),
				mcp.Required(),
			),
		),
		log: log,
	}
}

// Definition 返回工具声明
func (t *LocalTimeTool) Definition() mcp.Tool {
	return t.def
}

// RequiresConfirmation 时间查询自动执行
func (t *LocalTimeTool) RequiresConfirmation() bool {
	return false
}

// Handle 演示实现：记录请求的地点，固定返回 10am
func (t *LocalTimeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	location, err := req.RequireString("location")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter \"location\"."), nil
	}

	t.log.Info().Str("location", location).Msg("Getting local time")
	return mcp.NewToolResultText("10am"), nil
}
