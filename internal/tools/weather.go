package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
)

// WeatherSource 天气信息来源，由调用方注入；网络获取不在本仓库范围内
type WeatherSource interface {
	Current(ctx context.Context, city string) (string, error)
}

// StaticWeather 演示用的固定天气来源
type StaticWeather struct{}

// Current 总是报告晴天
func (StaticWeather) Current(ctx context.Context, city string) (string, error) {
	return fmt.Sprintf("The weather in %s is sunny", city), nil
}

// WeatherTool 天气查询工具。没有自动执行路径，调用前需要宿主侧人工确认
type WeatherTool struct {
	def    mcp.Tool
	log    zerolog.Logger
	source WeatherSource
}

// NewWeather 创建天气查询工具
func NewWeather(log zerolog.Logger, source WeatherSource) *WeatherTool {
	return &WeatherTool{
		def: mcp.NewTool("get_weather_information",
			mcp.WithDescription("Show the weather in a given city to the user"),
			mcp.WithString("city",
				mcp.Description("The city to look up the weather for"),
				mcp.Required(),
			),
		),
		log:    log,
		source: source,
	}
}

// Definition 返回工具声明
func (t *WeatherTool) Definition() mcp.Tool {
	return t.def
}

// RequiresConfirmation 天气查询必须先经人工确认
func (t *WeatherTool) RequiresConfirmation() bool {
	return true
}

// Handle 查询天气并返回报告文本
func (t *WeatherTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	city, err := req.RequireString("city")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter \"city\"."), nil
	}

	report, err := t.source.Current(ctx, city)
	if err != nil {
		t.log.Error().Err(err).Str("city", city).Msg("Weather lookup failed")
		return mcp.NewToolResultError(fmt.Sprintf("Weather lookup for \"%s\" failed: %v.", city, err)), nil
	}
	return mcp.NewToolResultText(report), nil
}
