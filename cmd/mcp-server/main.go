package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"Weave-Assistant/config"
	"Weave-Assistant/internal/logger"
	"Weave-Assistant/internal/mcp"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// 初始化日志
	logMgr, err := logger.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logMgr.Close()

	logMgr.Info().Str("log_dir", cfg.LogDir).Str("transport", cfg.Transport).Msg("Logger initialized")

	// 创建 MCP 服务器
	server, err := mcp.NewServer(cfg, logMgr)
	if err != nil {
		logMgr.Fatal().Err(err).Msg("Failed to create MCP server")
	}

	// 优雅关闭
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 启动服务器
	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(ctx)
	}()

	// 等待中断信号或传输退出
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logMgr.Info().Msg("Shutting down MCP server...")
		cancel()
		<-errChan
	case err := <-errChan:
		if err != nil {
			logMgr.Fatal().Err(err).Msg("MCP server exited")
		}
		logMgr.Info().Msg("MCP server exited")
	}
}
