package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/skyfoundry/mount-commander/internal/logging"
	"github.com/skyfoundry/mount-commander/internal/observability"
	"github.com/skyfoundry/mount-commander/model"
	"github.com/skyfoundry/mount-commander/mount"
)

const usage = `usage: mountctl -config <path> <command> [args]

commands:
  status                     firmware version, model, tracking mode
  position                   current RA/Dec and Alt/Az
  goto-ra-dec <ra> <dec>     slew to equatorial coordinates (hours, degrees)
  goto-alt-az <az> <alt>     slew to horizontal coordinates (degrees)
  sync <ra> <dec>            tell the mount where it is pointing
  slewing                    report whether a goto is in progress
  wait                       block until the current goto finishes
  cancel                     abort an in-progress goto
  move <dir> <rate> [dur]    drive an axis (up|down|left|right, rate 0-9)
  stop <axis>                halt one axis (az|alt)
  tracking [mode]            get or set tracking (off|alt-az|eq-north|eq-south)
  set-location <lat> <lon>   store the observer location
  set-time                   set the hand controller clock to now
`

func main() {
	configPath := flag.String("config", "mount.toml", "path to the mount TOML config")
	metricsAddr := flag.String("metrics-addr", "", "HTTP address for Prometheus /metrics (overrides config)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadServiceConfig(*configPath)
	if err != nil {
		fatal(ctx, log, err)
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		fatal(ctx, log, err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	var collector *observability.MountCollector
	if cfg.MetricsAddr != "" {
		collector, err = observability.NewMountCollector(nil)
		if err != nil {
			fatal(ctx, log, err)
		}
		serveMetrics(cfg.MetricsAddr, collector, log)
	}

	ctl, err := mount.NewController(cfg.Connection, mount.Options{Logger: log, Metrics: collector})
	if err != nil {
		fatal(ctx, log, err)
	}
	if cfg.Connection.AutoConnect {
		if err := ctl.Connect(ctx); err != nil {
			fatal(ctx, log, err)
		}
	}
	defer ctl.Close(context.Background())

	if err := run(ctx, ctl, args[0], args[1:]); err != nil {
		fatal(ctx, log, err)
	}
}

func run(ctx context.Context, ctl *mount.Controller, command string, args []string) error {
	switch command {
	case "status":
		return status(ctx, ctl)
	case "position":
		return position(ctx, ctl)
	case "goto-ra-dec":
		ra, dec, err := twoFloats(args)
		if err != nil {
			return err
		}
		return ctl.GotoRADec(ctx, ra, dec)
	case "goto-alt-az":
		az, alt, err := twoFloats(args)
		if err != nil {
			return err
		}
		return ctl.GotoAltAz(ctx, az, alt)
	case "sync":
		ra, dec, err := twoFloats(args)
		if err != nil {
			return err
		}
		return ctl.SyncRADec(ctx, ra, dec)
	case "slewing":
		slewing, err := ctl.IsSlewing(ctx)
		if err != nil {
			return err
		}
		fmt.Println(slewing)
		return nil
	case "wait":
		return waitForSlew(ctx, ctl)
	case "cancel":
		return ctl.CancelGoto(ctx)
	case "move":
		return move(ctx, ctl, args)
	case "stop":
		return stopAxis(ctx, ctl, args)
	case "tracking":
		return tracking(ctx, ctl, args)
	case "set-location":
		lat, lon, err := twoFloats(args)
		if err != nil {
			return err
		}
		loc, err := model.NewGeoLocation(lat, lon)
		if err != nil {
			return err
		}
		return ctl.SetLocation(ctx, loc)
	case "set-time":
		return ctl.SetTime(ctx, time.Now())
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func status(ctx context.Context, ctl *mount.Controller) error {
	version, err := ctl.GetVersion(ctx)
	if err != nil {
		return err
	}
	mountModel, err := ctl.GetModel(ctx)
	if err != nil {
		return err
	}
	mode, err := ctl.GetTrackingMode(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("firmware %s, model %d, tracking %s\n", version, mountModel, mode)
	return nil
}

func position(ctx context.Context, ctl *mount.Controller) error {
	eq, err := ctl.GetPositionRADec(ctx)
	if err != nil {
		return err
	}
	hz, err := ctl.GetPositionAltAz(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("RA %.5fh  Dec %+.4f\n", eq.RAHours, eq.DecDegrees)
	fmt.Printf("Az %.4f  Alt %+.4f\n", hz.AzimuthDegrees, hz.AltitudeDegrees)
	return nil
}

func waitForSlew(ctx context.Context, ctl *mount.Controller) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		slewing, err := ctl.IsSlewing(ctx)
		if err != nil {
			return err
		}
		if !slewing {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func move(ctx context.Context, ctl *mount.Controller, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("move needs a direction and a rate")
	}
	dir, err := parseDirection(args[0])
	if err != nil {
		return err
	}
	rate, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("rate: %w", err)
	}
	if len(args) >= 3 {
		d, err := time.ParseDuration(args[2])
		if err != nil {
			return fmt.Errorf("duration: %w", err)
		}
		return ctl.MoveForTime(ctx, dir, rate, d)
	}
	return ctl.MoveStep(ctx, dir, rate)
}

func stopAxis(ctx context.Context, ctl *mount.Controller, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("stop needs an axis (az|alt)")
	}
	switch args[0] {
	case "az":
		return ctl.StopMotion(ctx, model.AxisAzimuth)
	case "alt":
		return ctl.StopMotion(ctx, model.AxisAltitude)
	default:
		return fmt.Errorf("unknown axis %q", args[0])
	}
}

func tracking(ctx context.Context, ctl *mount.Controller, args []string) error {
	if len(args) == 0 {
		mode, err := ctl.GetTrackingMode(ctx)
		if err != nil {
			return err
		}
		fmt.Println(mode)
		return nil
	}
	mode, err := parseTrackingMode(args[0])
	if err != nil {
		return err
	}
	return ctl.SetTrackingMode(ctx, mode)
}

func parseDirection(s string) (model.Direction, error) {
	switch s {
	case "up":
		return model.AltitudePositive, nil
	case "down":
		return model.AltitudeNegative, nil
	case "right":
		return model.AzimuthPositive, nil
	case "left":
		return model.AzimuthNegative, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", s)
	}
}

func parseTrackingMode(s string) (model.TrackingMode, error) {
	switch s {
	case "off":
		return model.TrackingOff, nil
	case "alt-az":
		return model.TrackingAltAz, nil
	case "eq-north":
		return model.TrackingEquatorialNorth, nil
	case "eq-south":
		return model.TrackingEquatorialSouth, nil
	default:
		return 0, fmt.Errorf("unknown tracking mode %q", s)
	}
}

func twoFloats(args []string) (float64, float64, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("expected two numeric arguments")
	}
	a, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func serveMetrics(addr string, collector *observability.MountCollector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()
	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

func fatal(ctx context.Context, log logging.Logger, err error) {
	log.Error(ctx, "mountctl failed", logging.Err(err))
	os.Exit(1)
}
