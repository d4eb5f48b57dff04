package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// 支持的 MCP 传输方式
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config 服务器配置
type Config struct {
	ServerAddress string
	Transport     string
	LogLevel      string
	LogDir        string
	MaxTasks      int
}

// Load 加载配置，支持 .env 文件、环境变量和默认值
func Load() (*Config, error) {
	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddress: getEnv("MCP_SERVER_ADDRESS", ":8080"),
		Transport:     getEnv("MCP_TRANSPORT", TransportStdio),
		LogLevel:      getEnv("MCP_LOG_LEVEL", "info"),
		LogDir:        getEnv("MCP_LOG_DIR", "logs"),
		MaxTasks:      getEnvInt("MCP_MAX_TASKS", 100),
	}

	if cfg.Transport != TransportStdio && cfg.Transport != TransportHTTP {
		return nil, fmt.Errorf("unsupported transport: %s", cfg.Transport)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
