package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"Weave-Assistant/internal/calc"
)

// CalculatorTool 表达式计算工具
type CalculatorTool struct {
	def mcp.Tool
	log zerolog.Logger
}

// NewCalculator 创建表达式计算工具
func NewCalculator(log zerolog.Logger) *CalculatorTool {
	return &CalculatorTool{
		def: mcp.NewTool("calculate",
			mcp.WithDescription("A calculator tool that evaluates math expressions, "+
				"including operator precedence, parentheses and constants like pi and e"),
			mcp.WithString("expression",
				mcp.Description("The math expression to evaluate, e.g. \"2 + 2 * 3\""),
				mcp.Required(),
			),
		),
		log: log,
	}
}

// Definition 返回工具声明
func (t *CalculatorTool) Definition() mcp.Tool {
	return t.def
}

// RequiresConfirmation 计算无副作用，自动执行
func (t *CalculatorTool) RequiresConfirmation() bool {
	return false
}

// Handle 求值表达式。宿主总是拿到一段可以转发的文本，绝不收到异常
func (t *CalculatorTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expression, err := req.RequireString("expression")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter \"expression\"."), nil
	}

	output, failed := t.evaluate(expression)
	if failed {
		return mcp.NewToolResultError(output), nil
	}
	return mcp.NewToolResultText(output), nil
}

// evaluate 返回要转发的文本。兜底的 recover 把求值器的内部故障
// 转成包含原始表达式和故障描述的普通错误文本
func (t *CalculatorTool) evaluate(expression string) (output string, failed bool) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error().
				Interface("panic", r).
				Str("expression", expression).
				Msg("Expression evaluation panicked")
			output = fmt.Sprintf("Unable to evaluate \"%s\": %v.", expression, r)
			failed = true
		}
	}()

	value, err := calc.Evaluate(expression)
	if err != nil {
		return err.Error(), true
	}
	return calc.FormatResult(expression, value), false
}
