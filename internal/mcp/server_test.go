package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Weave-Assistant/config"
	"Weave-Assistant/internal/logger"
	"Weave-Assistant/internal/scheduler"
)

func newTestServer(t *testing.T, transport string) *Server {
	t.Helper()

	cfg := &config.Config{
		ServerAddress: "127.0.0.1:0",
		Transport:     transport,
		MaxTasks:      8,
	}

	s, err := NewServer(cfg, logger.Nop())
	require.NoError(t, err)
	return s
}

func doRequest(s *Server, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	s.httpSrv.Handler.ServeHTTP(w, req)
	return w
}

func TestNewServerRegistersTools(t *testing.T) {
	s := newTestServer(t, config.TransportStdio)

	infos := s.toolMgr.Tools()
	require.Len(t, infos, 6)

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{
		"calculate",
		"get_weather_information",
		"get_local_time",
		"schedule_task",
		"list_scheduled_tasks",
		"cancel_scheduled_task",
	}, names)

	// 只有天气查询需要确认
	for _, info := range infos {
		assert.Equal(t, info.Name == "get_weather_information", info.RequiresConfirmation, info.Name)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, config.TransportStdio)

	w := doRequest(s, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t, config.TransportStdio)

	w := doRequest(s, http.MethodGet, "/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var stats map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))

	serverInfo, ok := stats["server_info"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, serverName, serverInfo["name"])
	assert.Equal(t, serverVersion, serverInfo["version"])

	tools, ok := stats["tools"].([]any)
	require.True(t, ok)
	assert.Len(t, tools, 6)

	assert.Equal(t, float64(0), stats["pending_tasks"])
	assert.Equal(t, config.TransportStdio, stats["transport"])
	assert.NotEmpty(t, stats["timestamp"])

	// 挂一个任务后统计要跟着变
	_, err := s.store.Schedule(scheduler.Spec{
		Kind:        scheduler.KindDelayed,
		Delay:       time.Hour,
		Description: "stats probe",
	})
	require.NoError(t, err)

	w = doRequest(s, http.MethodGet, "/stats")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, float64(1), stats["pending_tasks"])
}

func TestMCPEndpointMountedPerTransport(t *testing.T) {
	t.Run("stdio 模式不挂载 HTTP 端点", func(t *testing.T) {
		s := newTestServer(t, config.TransportStdio)
		w := doRequest(s, http.MethodPost, "/mcp")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("http 模式挂载 HTTP 端点", func(t *testing.T) {
		s := newTestServer(t, config.TransportHTTP)
		w := doRequest(s, http.MethodPost, "/mcp")
		assert.NotEqual(t, http.StatusNotFound, w.Code)
	})
}

func TestStartStopsOnContextCancel(t *testing.T) {
	s := newTestServer(t, config.TransportHTTP)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
}
