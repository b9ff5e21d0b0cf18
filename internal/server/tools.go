package server

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/daemon"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/state"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/usecase"
)

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("env_check",
			mcp.WithDescription("Check whether the host can run the automation: supported OS, WeCom running, screen resolution known"),
			mcp.WithBoolean("screenshot", mcp.Description("Also capture the desktop")),
		),
		s.handleEnvCheck,
	)

	s.mcp.AddTool(
		mcp.NewTool("windows",
			mcp.WithDescription("List candidate WeCom windows with their placement state"),
		),
		s.handleWindows,
	)

	s.mcp.AddTool(
		mcp.NewTool("max_and_top",
			mcp.WithDescription("Maximize the WeCom window, pin it topmost and capture a screenshot"),
		),
		s.handleMaxAndTop,
	)

	s.mcp.AddTool(
		mcp.NewTool("send_message",
			mcp.WithDescription("Focus the WeCom input box, type text (optional) and send it"),
			mcp.WithString("text", mcp.Description("Text to type before sending; empty sends what is already typed")),
		),
		s.handleSendMessage,
	)

	s.mcp.AddTool(
		mcp.NewTool("locate",
			mcp.WithDescription("Locate a UI control on screen by template matching"),
			mcp.WithString("target", mcp.Description("Control name, e.g. input_box, send_button, 消息输入框"), mcp.Required()),
			mcp.WithBoolean("annotate", mcp.Description("Write an annotated copy of the screenshot")),
		),
		s.handleLocate,
	)

	s.mcp.AddTool(
		mcp.NewTool("guard_status",
			mcp.WithDescription("Report the guard state and the runtime context"),
		),
		s.handleGuardStatus,
	)

	s.mcp.AddTool(
		mcp.NewTool("guard_start",
			mcp.WithDescription("Start the guard, optionally changing its intervals"),
			mcp.WithNumber("tick_interval_ms", mcp.Description("Time between tick starts (min 200)")),
			mcp.WithNumber("locate_refresh_interval_ms", mcp.Description("Max age of cached positions (min 1000)")),
		),
		s.handleGuardStart,
	)

	s.mcp.AddTool(
		mcp.NewTool("guard_stop",
			mcp.WithDescription("Stop the guard"),
		),
		s.handleGuardStop,
	)
}

// toText serializes v to YAML for the MCP response.
func toText(v any) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("ok: false\nerror: %q", err.Error())
	}
	return string(b)
}

type failure struct {
	OK     bool   `yaml:"ok"`
	Error  string `yaml:"error"`
	Detail any    `yaml:"detail,omitempty"`
}

func (s *Server) fail(tool string, err error, detail any) *mcp.CallToolResult {
	s.logger.Warn("tool failed", zap.String("tool", tool), zap.Error(err))
	return mcp.NewToolResultError(toText(failure{Error: err.Error(), Detail: detail}))
}

func (s *Server) handleEnvCheck(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	var ready bool
	var report usecase.EnvReport
	if boolParam(params, "screenshot", false) {
		name := fmt.Sprintf("desktop_%s.png", time.Now().Format("20060102_150405"))
		ready, report = s.deps.Env.CheckAndCapture(filepath.Join(s.deps.EnvShotDir, name))
	} else {
		ready, report = s.deps.Env.Check()
	}
	return mcp.NewToolResultText(toText(struct {
		OK     bool              `yaml:"ok"`
		Report usecase.EnvReport `yaml:"detail"`
	}{ready, report})), nil
}

func (s *Server) handleWindows(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	candidates, samples, err := s.deps.Windows.EnumerateCandidates()
	if err != nil {
		return s.fail("windows", err, nil), nil
	}
	if candidates == nil {
		candidates = []domain.Candidate{}
	}
	return mcp.NewToolResultText(toText(struct {
		Windows      []domain.Candidate `yaml:"windows"`
		SampleTitles []string           `yaml:"sample_titles"`
	}{candidates, samples})), nil
}

func (s *Server) handleMaxAndTop(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.deps.MaxAndTop.Execute(ctx)
	if err != nil {
		return s.fail("max_and_top", err, nil), nil
	}
	return mcp.NewToolResultText(toText(struct {
		OK     bool                    `yaml:"ok"`
		Result usecase.MaxAndTopResult `yaml:",inline"`
	}{true, *result})), nil
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	text := stringParam(params, "text", "")

	result, err := s.deps.Send.Execute(ctx, text)
	if err != nil {
		var steps []usecase.SendStep
		if result != nil {
			steps = result.Steps
		}
		return s.fail("send_message", err, steps), nil
	}
	return mcp.NewToolResultText(toText(struct {
		OK     bool               `yaml:"ok"`
		Result usecase.SendResult `yaml:",inline"`
	}{true, *result})), nil
}

func (s *Server) handleLocate(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	target := stringParam(params, "target", "")
	if target == "" {
		return mcp.NewToolResultError("target is required"), nil
	}

	dir := filepath.Join(s.deps.ArtifactsDir, "locate")
	stamp := time.Now().Format("20060102_150405")
	shot := filepath.Join(dir, fmt.Sprintf("locate_%s.png", stamp))
	annotated := ""
	if boolParam(params, "annotate", false) {
		annotated = filepath.Join(dir, fmt.Sprintf("locate_%s_annotated.png", stamp))
	}

	result := s.deps.Locator.LocateMany([]string{target}, shot, annotated)[target]
	if err := result.Err(); err != nil {
		return s.fail("locate", err, result), nil
	}

	center, _ := result.Center()
	return mcp.NewToolResultText(toText(struct {
		OK     bool                `yaml:"ok"`
		Center domain.Point        `yaml:"center"`
		Result domain.LocateResult `yaml:"result"`
	}{true, center, result})), nil
}

// guardStatus is the YAML view of the guard and runtime context.
type guardStatus struct {
	Running bool               `yaml:"running"`
	Config  daemon.GuardConfig `yaml:"config"`
	Context contextView        `yaml:"context"`
}

type contextView struct {
	PhysicalScreen   *domain.Size  `yaml:"physical_screen"`
	LogicalScreen    *domain.Size  `yaml:"logical_screen"`
	InputCenter      *domain.Point `yaml:"input_center"`
	SendButtonCenter *domain.Point `yaml:"send_button_center"`
	Meta             metaView      `yaml:"meta"`
}

type metaView struct {
	CreatedAt            string `yaml:"created_at"`
	UpdatedAt            string `yaml:"updated_at"`
	LastGuardTickAt      string `yaml:"last_guard_tick_at"`
	LastLocateAt         string `yaml:"last_locate_at"`
	LastMaxTopAt         string `yaml:"last_max_top_at"`
	LastError            string `yaml:"last_error"`
	LastLocateScreenshot string `yaml:"last_locate_screenshot"`
	LastLocateAnnotated  string `yaml:"last_locate_annotated"`
}

func viewOf(snap state.Snapshot) contextView {
	m := snap.Meta
	return contextView{
		PhysicalScreen:   snap.PhysicalScreen,
		LogicalScreen:    snap.LogicalScreen,
		InputCenter:      snap.InputCenter,
		SendButtonCenter: snap.SendButtonCenter,
		Meta: metaView{
			CreatedAt:            domain.FormatTime(m.CreatedAt),
			UpdatedAt:            domain.FormatTime(m.UpdatedAt),
			LastGuardTickAt:      domain.FormatTime(m.LastGuardTickAt),
			LastLocateAt:         domain.FormatTime(m.LastLocateAt),
			LastMaxTopAt:         domain.FormatTime(m.LastMaxTopAt),
			LastError:            m.LastError,
			LastLocateScreenshot: m.LastLocateScreenshot,
			LastLocateAnnotated:  m.LastLocateAnnotated,
		},
	}
}

func (s *Server) status() guardStatus {
	return guardStatus{
		Running: s.deps.Guard.IsRunning(),
		Config:  s.deps.Guard.Config(),
		Context: viewOf(s.deps.State.Snapshot()),
	}
}

func (s *Server) handleGuardStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(toText(s.status())), nil
}

func (s *Server) handleGuardStart(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	var update daemon.GuardConfigUpdate
	if ms := intParam(params, "tick_interval_ms", 0); ms > 0 {
		d := time.Duration(ms) * time.Millisecond
		update.TickInterval = &d
	}
	if ms := intParam(params, "locate_refresh_interval_ms", 0); ms > 0 {
		d := time.Duration(ms) * time.Millisecond
		update.LocateRefreshInterval = &d
	}
	s.deps.Guard.UpdateConfig(update)

	started := s.deps.Guard.Start()
	return mcp.NewToolResultText(toText(struct {
		Started     bool `yaml:"started"`
		guardStatus `yaml:",inline"`
	}{started, s.status()})), nil
}

func (s *Server) handleGuardStop(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inTime := s.deps.Guard.Stop(s.deps.GuardStopTimeout)
	return mcp.NewToolResultText(toText(struct {
		StoppedInTime bool `yaml:"stopped_in_time"`
		guardStatus   `yaml:",inline"`
	}{inTime, s.status()})), nil
}

// Parameter extraction helpers for tool arguments

func stringParam(params map[string]any, key, defaultVal string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return defaultVal
}

func intParam(params map[string]any, key string, defaultVal int) int {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		case int64:
			return int(n)
		}
	}
	return defaultVal
}

func boolParam(params map[string]any, key string, defaultVal bool) bool {
	if v, ok := params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}
