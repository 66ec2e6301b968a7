package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deskboot/deskboot"
	"github.com/deskboot/deskboot/internal/display"
	"github.com/deskboot/deskboot/internal/logger"
	"github.com/deskboot/deskboot/internal/probe"
	"github.com/deskboot/deskboot/internal/reaper"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	upFlags := &UpFlags{}
	runFlags := &RunFlags{}
	probeFlags := &ProbeFlags{}
	reapFlags := &ReapFlags{}

	root := &cobra.Command{
		Use:   "deskboot",
		Short: "Virtual desktop bootstrap for headless automation workers",
		Long: `Deskboot prepares a disposable virtual desktop (Xvfb, x11vnc, noVNC
bridge) inside a container and hands control to the long-running worker.

Examples:
  deskboot up                        # Bootstrap, then exec the worker
  deskboot run --listen=:8081        # Bootstrap, supervise worker, serve status
  deskboot probe tcp://127.0.0.1:5900 --attempts=40
  deskboot reap --display=99`,
	}
	root.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", "", "path to TOML config file (optional)")
	root.PersistentFlags().StringVar(&globalFlags.LogLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		createUpCommand(globalFlags, upFlags),
		createRunCommand(globalFlags, runFlags),
		createProbeCommand(globalFlags, probeFlags),
		createReapCommand(globalFlags, reapFlags),
	)
	return root
}

// loadConfig builds the effective config and applies changed CLI flags on top.
func loadConfig(cmd *cobra.Command, globalFlags *GlobalFlags, f *UpFlags) (*deskboot.Config, error) {
	cfg, err := deskboot.LoadConfig(globalFlags.ConfigPath)
	if err != nil {
		return nil, err
	}
	if globalFlags.LogLevel != "" {
		cfg.LogLevel = globalFlags.LogLevel
	}
	if f == nil {
		return cfg, nil
	}
	flags := cmd.Flags()
	if flags.Changed("display") {
		cfg.Display.Number = f.Display
	}
	if flags.Changed("geometry") {
		w, h, d, err := parseGeometry(f.Geometry)
		if err != nil {
			return nil, err
		}
		cfg.Display.Width, cfg.Display.Height, cfg.Display.Depth = w, h, d
	}
	if flags.Changed("vnc-port") {
		cfg.VNC.Port = f.VNCPort
		cfg.Bridge.VNCPort = f.VNCPort
	}
	if flags.Changed("bridge-port") {
		cfg.Bridge.Port = f.BridgePort
	}
	if flags.Changed("bridge-assets") {
		cfg.Bridge.AssetsDir = f.AssetsDir
	}
	if flags.Changed("worker") {
		cfg.Worker.Command = f.WorkerCommand
	}
	if flags.Changed("worker-dir") {
		cfg.Worker.Dir = f.WorkerDir
	}
	return cfg, nil
}

func addUpFlags(cmd *cobra.Command, f *UpFlags) {
	cmd.Flags().IntVar(&f.Display, "display", 99, "X display number")
	cmd.Flags().StringVar(&f.Geometry, "geometry", "1440x900x24", "framebuffer geometry WxHxD")
	cmd.Flags().IntVar(&f.VNCPort, "vnc-port", 5900, "screen-share TCP port (all interfaces)")
	cmd.Flags().IntVar(&f.BridgePort, "bridge-port", 6080, "browser-facing bridge port")
	cmd.Flags().StringVar(&f.AssetsDir, "bridge-assets", "/usr/share/novnc", "noVNC asset directory (capability probe)")
	cmd.Flags().StringVar(&f.WorkerCommand, "worker", "", "worker command to hand off to")
	cmd.Flags().StringVar(&f.WorkerDir, "worker-dir", "", "worker working directory")
}

func createUpCommand(globalFlags *GlobalFlags, upFlags *UpFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Bootstrap the desktop chain and exec the worker",
		Long: `Run the bootstrap chain (reap stale state, Xvfb, x11vnc, bridge) and
replace this process with the worker. On success this command never
returns; the worker inherits the PID.

Examples:
  deskboot up
  deskboot up --display=42 --geometry=1920x1080x24
  deskboot up --worker="python3 -m src.workflows.worker"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, globalFlags, upFlags)
			if err != nil {
				return err
			}
			b, err := setup(cfg)
			if err != nil {
				return err
			}
			return b.Up(cmd.Context())
		},
	}
	addUpFlags(cmd, upFlags)
	return cmd
}

func createRunCommand(globalFlags *GlobalFlags, runFlags *RunFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Bootstrap and supervise the worker without exec handoff",
		Long: `Run the bootstrap chain, then keep deskboot resident: the worker runs
as a tracked child, a status API serves /healthz, /status and /metrics,
and on SIGTERM every subordinate process group is terminated.

Examples:
  deskboot run
  deskboot run --listen=:8081`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, globalFlags, &runFlags.UpFlags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Server.Listen = runFlags.Listen
			}
			b, err := setup(cfg)
			if err != nil {
				return err
			}
			srv := deskboot.NewStatusServer(cfg.Server.Listen, b)
			defer func() { _ = srv.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return b.Run(ctx)
		},
	}
	addUpFlags(cmd, &runFlags.UpFlags)
	cmd.Flags().StringVar(&runFlags.Listen, "listen", ":8081", "status API listen address")
	return cmd
}

func createProbeCommand(globalFlags *GlobalFlags, probeFlags *ProbeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe <target>",
		Short: "Wait for a target to accept connections",
		Long: `Poll a readiness target until it accepts a connection or the attempt
budget is spent. Exit status 0 means ready.

Targets:
  unix:///tmp/.X11-unix/X99
  tcp://127.0.0.1:5900 (or bare host:port)
  http://127.0.0.1:8000/health

Examples:
  deskboot probe unix:///tmp/.X11-unix/X99
  deskboot probe tcp://127.0.0.1:5900 --attempts=40 --delay=250ms`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd, globalFlags, nil); err != nil {
				return err
			}
			logger.Setup(globalFlags.LogLevel, true)
			target, err := deskboot.ParseTarget(args[0])
			if err != nil {
				return err
			}
			ready := deskboot.WaitReady(cmd.Context(), target, probe.Policy{
				Attempts:    probeFlags.Attempts,
				Delay:       probeFlags.Delay,
				DialTimeout: probeFlags.Timeout,
			})
			if !ready {
				return fmt.Errorf("target %s not ready", target.Describe())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&probeFlags.Attempts, "attempts", probe.DefaultAttempts, "max connection attempts")
	cmd.Flags().DurationVar(&probeFlags.Delay, "delay", probe.DefaultDelay, "delay between attempts")
	cmd.Flags().DurationVar(&probeFlags.Timeout, "timeout", probe.DefaultDialTimeout, "per-attempt dial timeout")
	return cmd
}

func createReapCommand(globalFlags *GlobalFlags, reapFlags *ReapFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reap",
		Short: "Remove stale display lock and socket files",
		Long: `Remove the lock file and socket special file for a display number, as
left behind by an unclean shutdown.

Examples:
  deskboot reap --display=99`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.Setup(globalFlags.LogLevel, true)
			d := display.Config{Number: reapFlags.Display}
			reaper.Reap(d.LockPath(), d.SocketPath())
			return nil
		},
	}
	cmd.Flags().IntVar(&reapFlags.Display, "display", 99, "X display number")
	return cmd
}

// setup wires logging, metrics and the optional journal, returning a
// ready-to-run bootstrap.
func setup(cfg *deskboot.Config) (*deskboot.Bootstrap, error) {
	logger.Setup(cfg.LogLevel, true)
	if err := deskboot.RegisterMetricsDefault(); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	b := deskboot.New(cfg)
	if strings.TrimSpace(cfg.Journal) != "" {
		j, err := deskboot.OpenJournal(cfg.Journal)
		if err != nil {
			// Journal is diagnostics; boot anyway.
			fmt.Fprintf(os.Stderr, "warning: boot journal unavailable: %v\n", err)
		} else {
			b.SetJournal(j)
		}
	}
	return b, nil
}
