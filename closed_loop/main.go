package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	control "vsss-drive/closed_loop/drive_control"
	"vsss-drive/closed_loop/match"
	"vsss-drive/closed_loop/strategy"
	"vsss-drive/field"
	"vsss-drive/telemetry"
	"vsss-drive/transport"
	"vsss-drive/utils"
)

func main() {
	app := cli.NewApp()
	app.Name = "vsss-drive"
	app.Usage = "Drive a three robot soccer team from vision and referee feeds"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Value: "", Usage: "YAML config file; built-in defaults when empty"},
		cli.StringFlag{Name: "team", Usage: "blue|yellow"},
		cli.StringFlag{Name: "log", Usage: "trace|debug|info|warn|error|critical"},
		cli.StringFlag{Name: "vision-addr", Usage: "Vision multicast group host:port"},
		cli.StringFlag{Name: "referee-addr", Usage: "Referee multicast group host:port"},
		cli.StringFlag{Name: "actuator", Usage: "udp|can"},
		cli.StringFlag{Name: "actuator-addr", Usage: "Simulator command host:port"},
		cli.StringFlag{Name: "telemetry-addr", Usage: "Serve tick telemetry on host:port (enables telemetry)"},
		cli.StringFlag{Name: "placement", Usage: "Formation file applied before the match"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		_, _ = os.Stderr.WriteString("ERROR: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg := utils.DefaultAppConfig()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = utils.LoadConfig(path); err != nil {
			return err
		}
	}
	cfg, err := applyOverrides(cfg, overrides{
		Team:          c.String("team"),
		LogLevel:      c.String("log"),
		VisionAddr:    c.String("vision-addr"),
		RefereeAddr:   c.String("referee-addr"),
		ActuatorKind:  c.String("actuator"),
		ActuatorAddr:  c.String("actuator-addr"),
		TelemetryAddr: c.String("telemetry-addr"),
		Placement:     c.String("placement"),
	})
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	baseLog, err := utils.NewLogger(utils.LogOptions{
		FilePath:   cfg.Log.File,
		AlsoStdout: cfg.Log.Stdout,
		Encoding:   cfg.Log.Encoding,
	}, utils.ParseLevel(cfg.Log.Level))
	if err != nil {
		return fmt.Errorf("cannot open log %s: %w", cfg.Log.File, err)
	}
	defer baseLog.Close()

	runID := uuid.NewString()
	log := baseLog.With("run", runID)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runMatch(ctx, cfg, runID, log); err != nil {
		log.Critical("Run failed: %v", err)
		return err
	}
	return nil
}

type closingActuator interface {
	match.Actuator
	Close() error
}

func newActuator(ctx context.Context, cfg utils.ActuatorConfig, team field.TeamColor, log *utils.Logger) (closingActuator, error) {
	switch cfg.Kind {
	case "can":
		cmap, err := utils.LoadCANMap(cfg.CANMap)
		if err != nil {
			return nil, fmt.Errorf("can map: %w", err)
		}
		w, err := utils.OpenCANWriter(ctx, cfg.CANIface, log)
		if err != nil {
			return nil, err
		}
		a, err := transport.NewCANActuator(cmap, w, cfg.FramePrefix)
		if err != nil {
			w.Close()
			return nil, err
		}
		log.Info("Actuator: can iface=%s frames=%v", cfg.CANIface, cmap.FrameNames())
		return a, nil
	default:
		a, err := transport.NewUDPActuator(cfg.Addr, team)
		if err != nil {
			return nil, err
		}
		log.Info("Actuator: udp addr=%s", cfg.Addr)
		return a, nil
	}
}

func runMatch(ctx context.Context, cfg utils.AppConfig, runID string, log *utils.Logger) error {
	team := cfg.TeamColor()
	log.Info("Starting: team=%s cycle=%s vision=%s referee=%s",
		team, cfg.Cycle(), cfg.Vision.Addr, cfg.Referee.Addr)

	visionL, err := transport.Listen("vision", cfg.Vision, log)
	if err != nil {
		return err
	}
	defer visionL.Close()

	refereeL, err := transport.Listen("referee", cfg.Referee, log)
	if err != nil {
		return err
	}
	defer refereeL.Close()

	act, err := newActuator(ctx, cfg.Actuator, team, log)
	if err != nil {
		return err
	}
	defer act.Close()

	if cfg.Placement != "" {
		rep, err := transport.NewUDPReplacer(cfg.Replacer.Addr, team)
		if err != nil {
			return err
		}
		err = ApplyFormation(ctx, cfg.Placement, rep, log)
		rep.Close()
		if err != nil {
			// The match can still be played from wherever the robots are.
			log.Error("Placement skipped: %v", err)
		}
	}

	runner := match.NewRunner(
		match.RunnerConfig{Cycle: cfg.Cycle(), Team: team},
		transport.NewVisionClient(visionL, team, log),
		transport.NewRefereeClient(refereeL, log),
		act,
		strategy.ChaseBall{},
		control.NewDiffDriveController(cfg.Drive),
		log,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return visionL.Run(gctx) })
	g.Go(func() error { return refereeL.Run(gctx) })

	if cfg.Telemetry.Enabled {
		hub := telemetry.NewHub(runID, log)
		runner.SetObserver(hub)
		g.Go(func() error { return serveTelemetry(gctx, hub, cfg.Telemetry.Addr, log) })
	}

	g.Go(func() error {
		if err := runner.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	err = g.Wait()
	if s, ok := act.(interface{ Stats() (utils.BusStats, bool) }); ok {
		if st, ok := s.Stats(); ok {
			log.Info("CAN bus: sent=%d failed=%d", st.Sent, st.Failed)
		}
	}
	log.Info("Shutdown complete")
	return err
}

// serveTelemetry runs the hub until ctx is done. Viewers are optional, so
// a failed server is logged and the match keeps running.
func serveTelemetry(ctx context.Context, hub *telemetry.Hub, addr string, log *utils.Logger) error {
	if err := hub.Run(ctx, addr); err != nil {
		log.Error("Telemetry stopped: %v", err)
	}
	return nil
}
