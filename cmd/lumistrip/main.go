package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/coreman2200/funtimes-lumistrip/internal/config"
	"github.com/coreman2200/funtimes-lumistrip/internal/led"
	"github.com/coreman2200/funtimes-lumistrip/internal/render"
	"github.com/coreman2200/funtimes-lumistrip/internal/sensor"
	"github.com/coreman2200/funtimes-lumistrip/internal/ws"
)

type options struct {
	configPath *string
	logLevel   *string
	dryRun     *bool
}

// newFlags defines the command line on fs. Config overrides are read back
// by flagOverrides.
func newFlags(fs *flag.FlagSet) options {
	fs.String("mode", "", "effect: pattern | fire")
	fs.String("driver", "", "outputs: spi | screen | term | none, comma separated")
	fs.Float64("fps", 0, "target frames per second")
	fs.Int("leds", 0, "number of LEDs on the strip")
	fs.String("preview", "", "websocket preview listen address, e.g. :8080")
	return options{
		configPath: fs.String("config", "config.yaml", "path to config.yaml"),
		logLevel:   fs.String("log-level", "info", "trace | debug | info | warn | error"),
		dryRun:     fs.Bool("dry-run", false, "render one second of frames in memory and exit"),
	}
}

// flagOverrides turns the flags set explicitly on fs into config overrides.
// They are applied at startup and again on every reload.
func flagOverrides(fs *flag.FlagSet) []config.Override {
	var out []config.Override
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.(flag.Getter).Get()
		switch f.Name {
		case "mode":
			out = append(out, func(c *config.Config) { c.Mode = config.Mode(v.(string)) })
		case "driver":
			out = append(out, func(c *config.Config) { c.Output.Driver = v.(string) })
		case "fps":
			out = append(out, func(c *config.Config) { c.TargetFPS, c.FrameDelayMs = v.(float64), 0 })
		case "leds":
			out = append(out, func(c *config.Config) { c.LedCount = v.(int) })
		case "preview":
			out = append(out, func(c *config.Config) { c.Output.PreviewAddr = v.(string) })
		}
	})
	return out
}

func main() {
	// ---- Flags (explicitly set flags win over config.yaml) ----
	opts := newFlags(flag.CommandLine)
	flag.Parse()
	overrides := flagOverrides(flag.CommandLine)

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if lvl, err := zerolog.ParseLevel(*opts.logLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("level", *opts.logLevel).Msg("unknown log level; using info")
	}

	// ---- Config ----
	cfg, err := config.Load(*opts.configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *opts.configPath).Msg("config load failed; using defaults")
		cfg = config.Default()
	}
	config.Apply(cfg, overrides...)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if *opts.dryRun {
		os.Exit(runDry(cfg))
	}
	os.Exit(run(cfg, *opts.configPath, overrides))
}

// runDry drives the loop into memory for a second and reports what it saw.
func runDry(cfg *config.Config) int {
	rec := &led.Recorder{}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := render.NewLoop(cfg, rec).Run(ctx); err != nil {
		log.Error().Err(err).Msg("dry run failed")
		return 1
	}
	frames := rec.Frames()
	ev := log.Info().Int("frames", len(frames))
	if len(frames) > 0 && len(frames[0]) > 0 {
		ev = ev.Stringer("first_led", frames[0][0])
	}
	ev.Msg("dry run complete")
	return 0
}

// auxiliary wraps a helper task for the errgroup. Its failure is logged and
// never cancels the group, so the strip keeps running without it.
func auxiliary(ctx context.Context, name string, task func(context.Context) error) func() error {
	return func() error {
		if err := task(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Str("task", name).Msg("auxiliary task stopped")
		}
		return nil
	}
}

func run(cfg *config.Config, configPath string, overrides []config.Override) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out, err := openOutputs(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to open outputs")
		return 1
	}
	defer func() {
		if err := out.sink.Close(); err != nil {
			log.Warn().Err(err).Msg("closing outputs")
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	gctx, cancel := context.WithCancel(gctx)
	defer cancel()

	// ---- Reload on SIGHUP ----
	reloader := config.NewReloader(configPath, overrides...)
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	trigger := make(chan struct{}, 1)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-hup:
				select {
				case trigger <- struct{}{}:
				default:
				}
			}
		}
	})
	g.Go(func() error {
		reloader.Run(gctx, trigger)
		return nil
	})

	opts := []render.Option{render.WithReload(reloader.Updates())}
	if cfg.Sensor.LightPin != "" {
		s, err := sensor.Open(cfg.Sensor.LightPin, time.Duration(cfg.Sensor.IntervalMs)*time.Millisecond)
		if err != nil {
			log.Warn().Err(err).Msg("light sensor unavailable")
		} else {
			opts = append(opts, render.WithLight(s.Level))
			g.Go(auxiliary(gctx, "light sensor", s.Run))
		}
	}
	if out.hub != nil {
		g.Go(auxiliary(gctx, "preview", func(ctx context.Context) error {
			return out.hub.Serve(ctx, cfg.Output.PreviewAddr)
		}))
	}
	if out.term != nil {
		g.Go(func() error {
			select {
			case <-out.term.Interrupts():
				log.Info().Msg("interrupted from terminal")
				cancel()
			case <-gctx.Done():
			}
			return nil
		})
	}

	loop := render.NewLoop(cfg, out.sink, opts...)
	g.Go(func() error {
		defer cancel()
		return loop.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("exiting")
		return 1
	}
	return 0
}

type outputs struct {
	sink led.Sink
	term *led.Term
	hub  *ws.Hub
}

// openOutputs builds the sink chain named by output.driver. On error every
// sink opened so far is closed again.
func openOutputs(cfg *config.Config) (outputs, error) {
	var (
		o     outputs
		sinks []led.Sink
	)
	fail := func(err error) (outputs, error) {
		_ = led.NewFanout(sinks...).Close()
		return outputs{}, err
	}

	for _, name := range strings.Split(cfg.Output.Driver, ",") {
		switch name = strings.TrimSpace(name); name {
		case "spi":
			s, err := led.OpenSPI(cfg.Output.SPI.Buses, cfg.LedCount, cfg.Output.SPI.SpeedHz)
			if err != nil {
				return fail(err)
			}
			sinks = append(sinks, s)
		case "screen":
			sinks = append(sinks, led.NewScreen(cfg.LedCount))
		case "term":
			t, err := led.NewTerm()
			if err != nil {
				return fail(err)
			}
			o.term = t
			sinks = append(sinks, t)
		case "none", "":
			sinks = append(sinks, led.Discard{})
		default:
			return fail(fmt.Errorf("unknown driver %q", name))
		}
		log.Info().Str("driver", name).Int("leds", cfg.LedCount).Msg("output ready")
	}

	if cfg.Output.PreviewAddr != "" {
		o.hub = ws.NewHub(cfg.LedCount)
		sinks = append(sinks, o.hub)
	}

	o.sink = led.NewFanout(sinks...)
	if cfg.Output.HeartbeatPin != "" {
		hb, err := led.OpenHeartbeat(o.sink, cfg.Output.HeartbeatPin)
		if err != nil {
			return fail(err)
		}
		o.sink = hb
	}
	return o, nil
}
