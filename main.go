package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	adhoc "DetBlur/Adhoc"
	"DetBlur/annotate"
	"DetBlur/config"
	"DetBlur/engine"
	"DetBlur/logger"
	"DetBlur/monitor"
	"DetBlur/pipeline"
	"DetBlur/profile"
	"DetBlur/server"
	"DetBlur/throughput"
)

const (
	flagConfig   = "config"
	flagBackend  = "backend"
	flagOutput   = "output"
	flagHeadless = "headless"
	flagWorkers  = "workers"
	flagDebug    = "debug"
)

// model is one detector requested on the command line.
type model struct {
	profile profile.Profile
	cfg     string
	weights string
}

func main() {
	app := &cli.App{
		Name:  "detblur",
		Usage: "detect faces and people in a video and blur the faces",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Value:   config.DefaultPath,
				Usage:   "Load configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:  flagBackend,
				Usage: "inference backend: auto, cuda or cpu",
			},
			&cli.StringFlag{
				Name:  flagOutput,
				Usage: "also write the annotated video to `FILE`",
			},
			&cli.BoolFlag{
				Name:  flagHeadless,
				Usage: "do not open a display window",
			},
			&cli.IntFlag{
				Name:  flagWorkers,
				Usage: "goroutines used to decode detector outputs",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "blur faces and outline people",
				ArgsUsage: "<face_cfg> <person_cfg> <face_weights> <person_weights> <video>",
				Action: func(c *cli.Context) error {
					args, err := requireArgs(c, 5)
					if err != nil {
						return err
					}
					return run(c, args[4], combinedModels(args)...)
				},
			},
			{
				Name:      "face",
				Usage:     "blur faces with a single-class face detector",
				ArgsUsage: "<cfg> <weights> <video>",
				Action: func(c *cli.Context) error {
					args, err := requireArgs(c, 3)
					if err != nil {
						return err
					}
					return run(c, args[2], model{profile: profile.SingleFace(), cfg: args[0], weights: args[1]})
				},
			},
			{
				Name:      "person",
				Usage:     "outline people",
				ArgsUsage: "<cfg> <weights> <video>",
				Action: func(c *cli.Context) error {
					args, err := requireArgs(c, 3)
					if err != nil {
						return err
					}
					return run(c, args[2], model{profile: profile.SinglePerson(), cfg: args[0], weights: args[1]})
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// combinedModels maps the run arguments to detectors. Person runs before face so
// a person outline crossing a face is blurred with it.
func combinedModels(args []string) []model {
	return []model{
		{profile: profile.Person(), cfg: args[1], weights: args[3]},
		{profile: profile.Face(), cfg: args[0], weights: args[2]},
	}
}

func requireArgs(c *cli.Context, n int) ([]string, error) {
	if c.NArg() != n {
		return nil, fmt.Errorf("usage: %s %s %s", c.App.Name, c.Command.Name, c.Command.ArgsUsage)
	}
	return c.Args().Slice(), nil
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String(flagConfig))
	if err != nil {
		return cfg, err
	}
	if c.IsSet(flagBackend) {
		cfg.Backend = c.String(flagBackend)
	}
	if c.IsSet(flagWorkers) && c.Int(flagWorkers) > 0 {
		cfg.Workers = c.Int(flagWorkers)
	}
	return cfg, nil
}

func initLogger(cfg config.Config, debug bool) error {
	switch {
	case cfg.LogFile != "":
		logger.InitFile(cfg.LogFile, debug)
		return nil
	case debug:
		return logger.InitDevelopment()
	default:
		return logger.InitProduction()
	}
}

func banner(cfg config.Config, b engine.Backend) {
	fmt.Println(strings.Repeat("#", 64))
	fmt.Printf("CPU Cores: %d\n", runtime.NumCPU())
	fmt.Println("Backend:", b.Name)
	fmt.Println("Input Size:", cfg.InputSize)
	fmt.Println("Decode Workers:", cfg.Workers)
	if cfg.HTTPPort > 0 {
		fmt.Println("HTTP Port:", cfg.HTTPPort)
	}
	if cfg.MetricsPort > 0 {
		fmt.Println("Metrics Port:", cfg.MetricsPort)
	}
	fmt.Println(strings.Repeat("#", 64))
}

func loadDetectors(cfg config.Config, b engine.Backend, models []model, log *zap.Logger) ([]*engine.Detector, []pipeline.Detector, error) {
	var (
		owned []*engine.Detector
		dets  []pipeline.Detector
	)
	for _, m := range models {
		p := cfg.Profile(m.profile)
		d := engine.NewDetector(p.Name, log.Named(p.Name))
		if err := d.LoadModel(m.cfg, m.weights); err != nil {
			return owned, nil, err
		}
		d.SetInputSize(cfg.InputSize)
		owned = append(owned, d)
		dets = append(dets, pipeline.Detector{Engine: d, Profile: p})
	}
	if err := engine.ApplyBackend(b, owned...); err != nil {
		return owned, nil, err
	}
	return owned, dets, nil
}

func run(c *cli.Context, video string, models ...model) (err error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	mode, err := engine.ParseMode(cfg.Backend)
	if err != nil {
		return err
	}
	if err := initLogger(cfg, c.Bool(flagDebug)); err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.Log()
	if !c.Bool(flagDebug) {
		gin.SetMode(gin.ReleaseMode)
	}

	backend := engine.SelectBackend(mode, engine.DeviceProbe)
	banner(cfg, backend)
	log.Info("Selected backend", zap.String("mode", mode), zap.String("backend", backend.Name), zap.Bool("accelerated", backend.Accelerated))

	owned, dets, err := loadDetectors(cfg, backend, models, log)
	defer func() {
		for _, d := range owned {
			err = multierr.Append(err, d.Close())
		}
	}()
	if err != nil {
		return err
	}

	src, err := engine.OpenVideo(video, log.Named("capture"))
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, src.Close()) }()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker := throughput.New(nil)
	mon := monitor.New(log.Named("monitor"))
	profiles := make([]profile.Profile, 0, len(dets))
	for _, d := range dets {
		profiles = append(profiles, d.Profile)
	}

	var sinks pipeline.MultiSink
	if !c.Bool(flagHeadless) {
		sinks = append(sinks, engine.NewWindowSink(engine.WindowName))
	}
	if out := c.String(flagOutput); out != "" {
		sinks = append(sinks, engine.NewFileSink(out, src.FPS(), log.Named("output")))
	}
	var hub *server.Hub
	if cfg.HTTPPort > 0 {
		hub = server.NewHub(log.Named("hub"))
		sinks = append(sinks, hub)
	}
	if len(sinks) == 0 {
		return errors.New("no output: --headless needs --output or an httpPort in the config")
	}
	defer func() { err = multierr.Append(err, sinks.Close()) }()

	instanceID := uuid.NewString()
	var reporter *adhoc.Reporter
	if cfg.Reporter.Enabled {
		reporter = adhoc.NewReporter(cfg.Reporter.URL, backend.Name,
			time.Duration(cfg.Reporter.IntervalSeconds)*time.Second,
			func() (float64, int64) { return tracker.FPS(), tracker.Frames() },
			log.Named("reporter"))
		instanceID = reporter.ID()
	}

	ambientCtx, cancelAmbient := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ambientCtx)
	g.Go(func() error {
		mon.StartMon(gctx, cfg.MetricsPort)
		return nil
	})
	if hub != nil {
		srv := server.New(server.Options{
			Hub: hub,
			Status: func() server.Status {
				return server.Status{ID: instanceID, Backend: backend.Name, FPS: tracker.FPS(), Frames: tracker.Frames()}
			},
			Detectors: profiles,
			Metrics:   mon.Handler(),
			Log:       log.Named("http"),
		})
		g.Go(func() error {
			return srv.Run(gctx, cfg.HTTPPort)
		})
	}
	var wg sync.WaitGroup
	if reporter != nil {
		wg.Add(1)
		go reporter.SendAliveMessage(ambientCtx, &wg)
	} else {
		log.Info("Reporter disabled, skipping status reports")
	}

	stats, runErr := pipeline.Run(ctx, pipeline.Options{
		Source:    src,
		Detectors: dets,
		Sink:      sinks,
		Tracker:   tracker,
		Annotator: annotate.New(log.Named("annotate"), annotate.WithParallelDecode(cfg.Workers)),
		Recorder:  mon,
		Log:       log.Named("pipeline"),
	})

	cancelAmbient()
	if gerr := g.Wait(); gerr != nil {
		log.Error("background service failed", zap.Error(gerr))
	}
	wg.Wait()

	log.Info("Processing finished",
		zap.Int64("frames", stats.Frames),
		zap.Any("detections", stats.Detections),
		zap.Int("skipped", stats.Skipped),
		zap.Int("inferenceErrors", stats.InferenceErrors),
		zap.Bool("quit", stats.Quit))
	fmt.Println("Safely exited")
	return runErr
}
