// Package server exposes the wecomguard actions as MCP tools. Every tool
// result is rendered as YAML.
package server

import (
	"context"
	"fmt"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/daemon"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/state"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/usecase"
)

// Transports accepted by Serve.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// EnvCheck reports the environment.
type EnvCheck interface {
	Check() (bool, usecase.EnvReport)
	CheckAndCapture(path string) (bool, usecase.EnvReport)
}

// WindowLister enumerates the candidate windows of the target application.
type WindowLister interface {
	EnumerateCandidates() ([]domain.Candidate, []string, error)
}

// MaxAndTopAction maximizes and pins the target window.
type MaxAndTopAction interface {
	Execute(ctx context.Context) (*usecase.MaxAndTopResult, error)
}

// SendAction sends a message.
type SendAction interface {
	Execute(ctx context.Context, text string) (*usecase.SendResult, error)
}

// GuardControl is the guard lifecycle as seen by the request layer.
type GuardControl interface {
	Start() bool
	Stop(timeout time.Duration) bool
	IsRunning() bool
	Config() daemon.GuardConfig
	UpdateConfig(u daemon.GuardConfigUpdate) daemon.GuardConfig
}

// Deps are the components behind the tools.
type Deps struct {
	Env       EnvCheck
	Windows   WindowLister
	MaxAndTop MaxAndTopAction
	Send      SendAction
	Locator   domain.Locator
	Guard     GuardControl
	State     *state.RuntimeContext

	ArtifactsDir     string        // Receives locate screenshots
	EnvShotDir       string        // Receives env_check screenshots
	GuardStopTimeout time.Duration // Bound for guard_stop
}

// Server wraps the MCP server.
type Server struct {
	deps   Deps
	logger *zap.Logger
	mcp    *mcpserver.MCPServer
}

// New creates a server with all tools registered.
func New(name, version string, deps Deps, logger *zap.Logger) *Server {
	if deps.GuardStopTimeout <= 0 {
		deps.GuardStopTimeout = 5 * time.Second
	}
	s := &Server{
		deps:   deps,
		logger: logger,
		mcp:    mcpserver.NewMCPServer(name, version),
	}
	s.registerTools()
	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcpserver.MCPServer {
	return s.mcp
}

// Serve blocks serving the given transport.
func (s *Server) Serve(transport, addr string) error {
	s.logger.Info("mcp server starting",
		zap.String("transport", transport),
		zap.String("addr", addr))

	switch transport {
	case TransportStdio:
		return mcpserver.ServeStdio(s.mcp)
	case TransportHTTP:
		return mcpserver.NewStreamableHTTPServer(s.mcp).Start(addr)
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or http)", transport)
	}
}
