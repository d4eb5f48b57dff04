package mcp

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"

	"Weave-Assistant/config"
	"Weave-Assistant/internal/logger"
	"Weave-Assistant/internal/scheduler"
	"Weave-Assistant/internal/tools"
	"Weave-Assistant/middleware"
)

// 服务器标识，随初始化握手发给宿主
const (
	serverName    = "Weave-Assistant"
	serverVersion = "1.0.0"
)

// 宿主在会话开始时收到的使用说明
const serverInstructions = "Weave-Assistant exposes a demo tool set for a chat agent: " +
	"weather lookup, local time, task scheduling and expression calculation. " +
	"Tool failures come back as plain text the model can relay or act on."

// Server MCP 服务器：工具集、任务注册表和运维端点的装配处。
// 协议和会话由宿主框架负责，这里只做装配
type Server struct {
	config  *config.Config
	logger  *logger.Logger
	toolMgr *tools.Manager
	store   *scheduler.Store
	mcpSrv  *server.MCPServer
	httpSrv *http.Server
	started time.Time
}

// NewServer 创建新的 MCP 服务器
func NewServer(cfg *config.Config, logMgr *logger.Logger) (*Server, error) {
	s := &Server{
		config:  cfg,
		logger:  logMgr,
		started: time.Now(),
	}

	// 任务到期后只记录日志，消息投递属于宿主的聊天回路
	s.store = scheduler.NewStore(logMgr.Logger, cfg.MaxTasks, s.taskDue)

	// 注册所有工具
	s.toolMgr = tools.NewManager(logMgr)
	s.toolMgr.Register(tools.NewCalculator(logMgr.Logger))
	s.toolMgr.Register(tools.NewWeather(logMgr.Logger, tools.StaticWeather{}))
	s.toolMgr.Register(tools.NewLocalTime(logMgr.Logger))
	s.toolMgr.Register(tools.NewScheduleTask(s.store))
	s.toolMgr.Register(tools.NewListTasks(s.store))
	s.toolMgr.Register(tools.NewCancelTask(s.store))

	s.mcpSrv = server.NewMCPServer(serverName, serverVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions),
	)
	s.toolMgr.Attach(s.mcpSrv)

	s.setupHTTPServer()

	return s, nil
}

// taskDue 任务到期回调
func (s *Server) taskDue(task scheduler.Task) {
	s.logger.Info().
		Str("task_id", task.ID).
		Str("type", string(task.Kind)).
		Str("description", task.Description).
		Msg("Scheduled task fired")
}

// setupHTTPServer 设置运维 HTTP 服务器，HTTP 传输模式下同时挂载 MCP 端点
func (s *Server) setupHTTPServer() {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(middleware.LoggingMiddleware(s.logger), middleware.RecoveryMiddleware(s.logger))

	router.GET("/health", s.handleHealthCheck)
	router.GET("/stats", s.handleStats)

	if s.config.Transport == config.TransportHTTP {
		streamable := server.NewStreamableHTTPServer(s.mcpSrv)
		router.Any("/mcp", gin.WrapH(streamable))
	}

	s.httpSrv = &http.Server{
		Addr:    s.config.ServerAddress,
		Handler: router,
		// 不设读写超时：HTTP 传输模式下 /mcp 上有长连接流
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Start 启动任务运行器、运维端点和选定的 MCP 传输，阻塞到 ctx 结束
func (s *Server) Start(ctx context.Context) error {
	go s.store.Run(ctx)

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info().Str("address", s.config.ServerAddress).Msg("Operational endpoints listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	switch s.config.Transport {
	case config.TransportStdio:
		go func() {
			s.logger.Info().Msg("Serving MCP over stdio")
			err := server.NewStdioServer(s.mcpSrv).Listen(ctx, os.Stdin, os.Stdout)
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			// stdin 关闭视为宿主要求停机
			errChan <- err
		}()
	case config.TransportHTTP:
		s.logger.Info().Str("address", s.config.ServerAddress).Msg("Serving MCP over streamable HTTP")
	}

	select {
	case err := <-errChan:
		if err != nil {
			return err
		}
		return s.Stop()
	case <-ctx.Done():
		return s.Stop()
	}
}

// Stop 优雅停止，给在途请求 30 秒完成
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping MCP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	s.logger.Info().Msg("MCP server stopped")
	return nil
}

func (s *Server) handleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// handleStats 统计信息端点：工具清单和任务注册表状态
func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"server_info": gin.H{
			"name":    serverName,
			"version": serverVersion,
		},
		"transport":     s.config.Transport,
		"tools":         s.toolMgr.Tools(),
		"pending_tasks": s.store.Count(),
		"uptime":        time.Since(s.started).String(),
		"timestamp":     time.Now().Format(time.RFC3339),
	})
}
