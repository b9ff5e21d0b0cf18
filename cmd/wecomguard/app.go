package main

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/config"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/daemon"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/desktop"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/infra"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/policy"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/position"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/server"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/state"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/usecase"
	"github.com/eliteGoblin/focusd/wecom_guard/internal/window"
)

// app holds the wired components. Window-dependent parts are nil when the
// platform has no desktop support.
type app struct {
	cfg    config.Config
	logger *zap.Logger

	policy  domain.Policy
	state   *state.RuntimeContext
	shots   domain.Screenshotter
	screens domain.ScreenMetrics
	locator *position.Locator
	env     *usecase.EnvChecker

	controller *window.Controller
	guard      *daemon.Guard
	maxAndTop  *usecase.MaxAndTop
	send       *usecase.SendMessage
	desktopErr error
}

func newApp(cfg config.Config, logger *zap.Logger) (*app, error) {
	if err := desktop.EnableDPIAwareness(); err != nil {
		logger.Warn("enable dpi awareness failed", zap.Error(err))
	}

	registry := policy.NewRegistry(
		policy.NewWeComPolicyWith(cfg.Window.TitleSubstrings, cfg.Window.ProcessNames),
	)
	p, err := registry.Policy(cfg.App)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		policy: p,
		state:  state.New(state.Options{}),
		shots:  infra.NewScreenshotter(filepath.Join(cfg.ArtifactsDir, "screenshots")),
	}

	a.screens = desktop.NewScreenMetrics()
	if a.screens == nil {
		a.screens = infra.NewDisplayMetrics()
	}

	policies := position.DefaultTargetPolicies()
	for target, th := range cfg.Matcher.Thresholds {
		tp := policies[target]
		tp.Threshold = th
		policies[target] = tp
	}
	a.locator = position.NewLocator(
		position.NewRepository(cfg.TemplateRoot, nil),
		newMatcher(cfg.Matcher.Backend, cfg.Matcher.Threshold, logger),
		a.shots,
		a.screens,
		position.LocatorOptions{
			Policies:  policies,
			Threshold: cfg.Matcher.Threshold,
			Annotator: infra.NewAnnotator(),
		},
		logger,
	)

	procs := infra.NewProcessManager()
	a.env = usecase.NewEnvChecker(
		infra.NewHostInfo(),
		a.screens,
		procs,
		infra.NewFileSystemManager(),
		a.shots,
		a.policy,
		logger,
	)

	desk, err := desktop.New()
	if err != nil {
		a.desktopErr = err
		logger.Debug("desktop unavailable", zap.Error(err))
		return a, nil
	}

	wcfg := window.DefaultConfig(a.policy)
	if cfg.Window.SettleDelay > 0 {
		wcfg.SettleDelay = cfg.Window.SettleDelay
	}
	a.controller = window.NewController(desk, procs, wcfg, logger)

	guardCfg := daemon.GuardConfig{
		TickInterval:          cfg.Guard.TickInterval,
		LocateRefreshInterval: cfg.Guard.LocateRefreshInterval,
	}.Clamped()
	a.guard = daemon.NewGuard(guardCfg, a.controller, a.locator, a.screens, a.state, cfg.ArtifactsDir, logger)

	a.maxAndTop = usecase.NewMaxAndTop(a.controller, a.shots, a.state, cfg.Screenshots.MaxAndTop, logger)
	a.send = usecase.NewSendMessage(a.locator, desktop.NewInputter(), a.shots, a.state,
		usecase.SendMessageOptions{
			ShotDir:     cfg.Screenshots.SendMessage,
			CacheMaxAge: func() time.Duration { return a.guard.Config().LocateRefreshInterval },
		}, logger)

	return a, nil
}

// requireDesktop fails commands that drive windows on unsupported platforms.
func (a *app) requireDesktop() error {
	if a.desktopErr != nil {
		return fmt.Errorf("window control unavailable: %w", a.desktopErr)
	}
	return nil
}

func (a *app) server() *server.Server {
	return server.New("wecomguard", Version, server.Deps{
		Env:              a.env,
		Windows:          a.controller,
		MaxAndTop:        a.maxAndTop,
		Send:             a.send,
		Locator:          a.locator,
		Guard:            a.guard,
		State:            a.state,
		ArtifactsDir:     a.cfg.ArtifactsDir,
		EnvShotDir:       a.cfg.Screenshots.EnvCheck,
		GuardStopTimeout: a.cfg.Guard.StopTimeout,
	}, a.logger)
}
