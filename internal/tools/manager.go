package tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"Weave-Assistant/internal/logger"
)

// Tool 工具接口：一份 MCP 声明加一个处理函数。
// 可预期的失败以错误结果文本返回，Handle 返回的 error 只表示内部故障。
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	// RequiresConfirmation 标记没有自动执行路径的工具。
	// 确认流程由宿主实现，这里只提供标记。
	RequiresConfirmation() bool
}

// Info 工具信息结构
type Info struct {
	Name                 string `json:"name"`
	Description          string `json:"description"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
}

// Manager MCP 工具管理器
type Manager struct {
	tools  map[string]Tool
	order  []string
	logger *logger.Logger
}

// NewManager 创建新的工具管理器
func NewManager(log *logger.Logger) *Manager {
	return &Manager{
		tools:  make(map[string]Tool),
		logger: log,
	}
}

// Register 注册工具，同名工具后注册的覆盖先注册的
func (m *Manager) Register(tool Tool) {
	name := tool.Definition().Name
	if _, exists := m.tools[name]; !exists {
		m.order = append(m.order, name)
	}
	m.tools[name] = tool

	m.logger.Info().
		Str("tool", name).
		Bool("requires_confirmation", tool.RequiresConfirmation()).
		Msg("Tool registered")
}

// Tools 按注册顺序返回所有工具信息
func (m *Manager) Tools() []Info {
	infos := make([]Info, 0, len(m.order))
	for _, name := range m.order {
		tool := m.tools[name]
		def := tool.Definition()
		infos = append(infos, Info{
			Name:                 def.Name,
			Description:          def.Description,
			RequiresConfirmation: tool.RequiresConfirmation(),
		})
	}
	return infos
}

// Attach 把所有工具挂载到 MCP 服务器
func (m *Manager) Attach(s *server.MCPServer) {
	for _, name := range m.order {
		tool := m.tools[name]
		s.AddTool(tool.Definition(), m.instrumented(name, tool))
	}
}

// instrumented 包装处理函数，记录每次调用的参数、结果和耗时
func (m *Manager) instrumented(name string, tool Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := tool.Handle(ctx, req)
		m.logger.LogToolCall(name, req.GetArguments(), resultSummary(result), err, time.Since(start))
		return result, err
	}
}

// resultSummary 提取结果文本用于日志
func resultSummary(result *mcp.CallToolResult) interface{} {
	if result == nil {
		return nil
	}

	summary := map[string]interface{}{"is_error": result.IsError}
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			summary["text"] = text.Text
			break
		}
	}
	return summary
}
