// Package main is the CLI entry point for wecomguard.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/config"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wecomguard",
	Short: "Keeps the WeCom window maximized and on top, and sends messages through it",
	Long: `wecomguard drives the WeCom desktop client. A background guard keeps the
main window maximized and topmost and tracks the positions of the message
input box and send button by template matching, so requests can act on
cached coordinates.

Requests are served as MCP tools (serve) or run once from the command line.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var guardCmd = &cobra.Command{
	Use:   "guard",
	Short: "Run the guard in the foreground until interrupted",
	RunE:  runGuard,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the MCP tools (stdio or http), starting the guard if enabled",
	RunE:  runServe,
}

var maxTopCmd = &cobra.Command{
	Use:   "max-top",
	Short: "Maximize the WeCom window, pin it topmost and take a screenshot",
	RunE:  runMaxTop,
}

var locateCmd = &cobra.Command{
	Use:   "locate <target>",
	Short: "Locate a UI control (input_box, send_button, ...) on screen",
	Args:  cobra.ExactArgs(1),
	RunE:  runLocate,
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Focus the input box, type --text and send it",
	RunE:  runSend,
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Check whether the environment can run the automation",
	RunE:  runEnv,
}

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List candidate WeCom windows",
	RunE:  runWindows,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	configPath string
	flagValues struct {
		templates, artifacts, matcher, logLevel, transport, addr string
	}

	locateAnnotate bool
	sendText       string
	envScreenshot  bool
	jsonOutput     bool
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "wecomguard.yaml", "Path to the YAML config file")
	pf.StringVar(&flagValues.templates, "templates", "", "Template root directory (overrides TEMPLATE_ROOT)")
	pf.StringVar(&flagValues.artifacts, "artifacts", "", "Artifacts directory (overrides WECOMGUARD_ARTIFACTS)")
	pf.StringVar(&flagValues.matcher, "matcher", "", "Matcher backend: opencv or native")
	pf.StringVar(&flagValues.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	serveCmd.Flags().StringVar(&flagValues.transport, "transport", "", "MCP transport: stdio or http")
	serveCmd.Flags().StringVar(&flagValues.addr, "addr", "", "Listen address for the http transport")
	locateCmd.Flags().BoolVar(&locateAnnotate, "annotate", false, "Write an annotated screenshot")
	sendCmd.Flags().StringVar(&sendText, "text", "", "Text to type before sending")
	envCmd.Flags().BoolVar(&envScreenshot, "screenshot", false, "Also capture the desktop")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(guardCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(maxTopCmd)
	rootCmd.AddCommand(locateCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(windowsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig applies only the flags the user actually set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var overrides config.FlagOverrides
	bind := func(name string, v *string) *string {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			return v
		}
		return nil
	}
	overrides.TemplateRoot = bind("templates", &flagValues.templates)
	overrides.ArtifactsDir = bind("artifacts", &flagValues.artifacts)
	overrides.MatcherBackend = bind("matcher", &flagValues.matcher)
	overrides.LogLevel = bind("log-level", &flagValues.logLevel)
	overrides.Transport = bind("transport", &flagValues.transport)
	overrides.Addr = bind("addr", &flagValues.addr)

	explicit := cmd.Flags().Changed("config")
	return config.Load(configPath, explicit, os.Getenv, &overrides)
}

// setup loads config, creates the logger and wires the app.
func setup(cmd *cobra.Command) (*app, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	logger := createLogger(cfg.Log)
	cleanup := func() { _ = logger.Sync() }

	a, err := newApp(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return a, cleanup, nil
}

func printYAML(v any) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(b)
	return err
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runGuard(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := a.requireDesktop(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	a.logger.Info("guard running in foreground",
		zap.Duration("tick_interval", a.guard.Config().TickInterval),
		zap.Duration("locate_refresh_interval", a.guard.Config().LocateRefreshInterval))
	a.guard.Run(ctx)
	a.logger.Info("guard exited")
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := a.requireDesktop(); err != nil {
		return err
	}

	if a.cfg.Guard.Enabled {
		a.guard.Start()
		defer a.guard.Stop(a.cfg.Guard.StopTimeout)
	}

	return a.server().Serve(a.cfg.Server.Transport, a.cfg.Server.Addr)
}

func runMaxTop(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := a.requireDesktop(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := a.maxAndTop.Execute(ctx)
	if err != nil {
		return err
	}
	return printYAML(result)
}

func runLocate(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	target := args[0]
	annotated := ""
	if locateAnnotate {
		annotated = filepath.Join(a.cfg.ArtifactsDir, "locate", "locate_annotated.png")
	}
	result := a.locator.LocateMany([]string{target}, "", annotated)[target]
	if err := printYAML(result); err != nil {
		return err
	}
	return result.Err()
}

func runSend(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := a.requireDesktop(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, sendErr := a.send.Execute(ctx, sendText)
	if err := printYAML(result); err != nil {
		return err
	}
	return sendErr
}

func runEnv(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	var ready bool
	var report any
	if envScreenshot {
		ready, report = a.env.CheckAndCapture(filepath.Join(a.cfg.Screenshots.EnvCheck, "desktop.png"))
	} else {
		ready, report = a.env.Check()
	}
	return printYAML(map[string]any{"ok": ready, "detail": report})
}

func runWindows(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := a.requireDesktop(); err != nil {
		return err
	}

	candidates, samples, err := a.controller.EnumerateCandidates()
	if err != nil {
		return err
	}
	return printYAML(map[string]any{"windows": candidates, "sample_titles": samples})
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("wecomguard %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
