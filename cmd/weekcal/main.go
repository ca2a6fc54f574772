package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weekcal/internal/capture"
	"weekcal/internal/config"
	appLog "weekcal/internal/log"
	"weekcal/internal/refresh"
	"weekcal/internal/render"
	"weekcal/internal/schedule"
	"weekcal/internal/view"
	"weekcal/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	snapshot   bool
	debug      bool
}

func main() {
	flags := parseFlags()
	os.Exit(run(flags))
}

func run(flags flagConfig) int {
	defer appLog.Sync()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		return 1
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.debug {
		conf.LogLevel = "debug"
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	loc := resolveLocationOrLocal(conf.Timezone)

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", loc.String(),
		"refresh", conf.RefreshCron,
		"horizon_weeks", conf.HorizonWeeks,
		"static_days", len(conf.Schedule),
		"ics_count", len(conf.ICS),
		"once", flags.once,
		"snapshot", flags.snapshot,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := refresh.NewLoader(conf, loc)
	store, err := loader.Build(ctx)
	if err != nil {
		appLog.Error("failed to build schedule", err)
		return 1
	}
	live := schedule.NewLive(store)

	ctrl := view.NewController(live, view.Options{
		Labels:      view.Labels(conf.Labels),
		Placeholder: conf.Placeholder,
		Location:    loc,
	})

	if flags.once {
		render.Week(os.Stdout, ctrl.Week())
		return 0
	}

	if len(conf.ICS) > 0 {
		if _, err := refresh.Start(ctx, loader, live); err != nil {
			appLog.Error("failed to start refresh scheduler", err)
			return 1
		}
	}

	srv := web.NewServer(conf, ctrl)

	if flags.snapshot {
		return runSnapshot(ctx, conf, srv)
	}

	if err := srv.Run(ctx); err != nil {
		appLog.Error("HTTP server failed", err)
		return 1
	}
	appLog.Info("weekcal exiting")
	return 0
}

// runSnapshot serves the week page just long enough to capture it.
func runSnapshot(ctx context.Context, conf *config.Config, srv *web.Server) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	// Give the listener a moment to bind.
	time.Sleep(200 * time.Millisecond)

	opts := capture.Options{
		URL:        "http://" + conf.Listen + "/",
		OutputPath: conf.Snapshot.Path,
		Width:      conf.Snapshot.Width,
		Height:     conf.Snapshot.Height,
	}
	if conf.BasicAuth != nil {
		opts.Username = conf.BasicAuth.Username
		opts.Password = conf.BasicAuth.Password
	}

	code := 0
	if err := capture.WeekPNG(ctx, opts); err != nil {
		appLog.Error("snapshot failed", err)
		code = 1
	} else {
		appLog.Info("snapshot written", "path", opts.OutputPath)
	}

	cancel()
	if err := <-errCh; err != nil {
		appLog.Error("HTTP server failed", err)
		code = 1
	}
	return code
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/weekcal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Print the current week to stdout and exit")
	flag.BoolVar(&cfg.snapshot, "snapshot", false, "Capture the week page to the configured PNG path and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}
