package render

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-lumistrip/internal/config"
	"github.com/coreman2200/funtimes-lumistrip/internal/effect"
	"github.com/coreman2200/funtimes-lumistrip/internal/model"
)

const DFLT_REPORT_EVERY = 10

var ErrNotIdle = errors.New("loop is not idle")

type Option func(*Loop)

// WithReload lets the loop pick up new configuration snapshots between frames.
func WithReload(ch <-chan config.Update) Option { return func(l *Loop) { l.reload = ch } }

// WithLight attaches the last-known ambient light reading to rate reports.
func WithLight(read func() float64) Option { return func(l *Loop) { l.light = read } }

// WithRand fixes the generator the fire effect draws from.
func WithRand(r *rand.Rand) Option { return func(l *Loop) { l.rng = r } }

func WithReportEvery(n int) Option { return func(l *Loop) { l.reportEvery = n } }

// Stats summarizes a run.
type Stats struct {
	Frames  uint64
	Elapsed time.Duration
	FPS     float64
}

// Loop paces an effect at a fixed interval and hands every frame to a Driver.
type Loop struct {
	cfg         *config.Config
	drv         Driver
	reload      <-chan config.Update
	light       func() float64
	rng         *rand.Rand
	reportEvery int
	limiter     Limiter
	runID       string
	logger      zerolog.Logger

	mu     sync.Mutex
	state  State
	frames uint64
	start  time.Time
	stop   time.Time

	eff     effect.Effect
	version uint64
	out     []model.ColorVal
}

// NewLoop snapshots cfg; later changes to it do not affect the loop.
func NewLoop(cfg *config.Config, drv Driver, opts ...Option) *Loop {
	cfg = cfg.Clone()
	l := &Loop{
		cfg:         cfg,
		drv:         drv,
		reportEvery: DFLT_REPORT_EVERY,
		limiter:     NewLimiter(cfg.Output.Limiter),
		runID:       uuid.NewString(),
		state:       Idle,
	}
	for _, o := range opts {
		o(l)
	}
	l.setLogger(string(cfg.Mode))
	return l
}

func (l *Loop) setLogger(mode string) {
	l.logger = log.With().
		Str("run_id", l.runID).
		Str("mode", mode).
		Logger()
}

func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	end := l.stop
	if end.IsZero() {
		end = time.Now()
	}
	s := Stats{Frames: l.frames}
	if !l.start.IsZero() {
		s.Elapsed = end.Sub(l.start)
	}
	if s.Elapsed > 0 {
		s.FPS = float64(s.Frames) / s.Elapsed.Seconds()
	}
	return s
}

// Run builds the effect and drives it until ctx is cancelled or a frame
// fails. Either way one black frame is sent before Run returns. Cancellation
// returns nil; configuration errors return before any frame is sent.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.state != Idle {
		l.mu.Unlock()
		return ErrNotIdle
	}
	l.state = Initializing
	l.mu.Unlock()

	eff, err := effect.New(l.cfg, l.rng)
	if err != nil {
		l.logger.Error().Err(err).Msg("configuration error; not starting")
		l.setState(Stopped)
		return err
	}
	l.eff = eff
	l.out = make([]model.ColorVal, l.cfg.LedCount)

	l.mu.Lock()
	l.state = Running
	l.start = time.Now()
	l.mu.Unlock()
	l.logger.Info().
		Int("leds", l.cfg.LedCount).
		Dur("interval", l.cfg.Interval()).
		Bool("fixed_delay", l.cfg.FixedDelay()).
		Msg("frame loop starting")

	runErr := l.run(ctx)
	if runErr != nil {
		l.logger.Error().Err(runErr).Msg("frame loop failed")
	}

	l.mu.Lock()
	l.state = Draining
	l.stop = time.Now()
	l.mu.Unlock()
	l.drain()
	l.setState(Stopped)

	st := l.Stats()
	l.logger.Info().
		Uint64("frames", st.Frames).
		Float64("actual_fps", st.FPS).
		Float64("target_fps", l.cfg.EffectiveFPS()).
		Msg("frame loop stopped; LEDs cleared")
	return runErr
}

func (l *Loop) run(ctx context.Context) error {
	interval := l.cfg.Interval()
	for {
		if ctx.Err() != nil {
			return nil
		}
		l.pollReload()

		// armed before computing so frame time is absorbed into the interval
		next := time.NewTimer(interval)

		if err := l.tick(); err != nil {
			next.Stop()
			return fmt.Errorf("frame %d: %w", l.Stats().Frames+1, err)
		}

		select {
		case <-ctx.Done():
			next.Stop()
			return nil
		case <-next.C:
		}
	}
}

func (l *Loop) tick() error {
	copy(l.out, l.eff.Step())
	if l.limiter.Enabled() {
		l.limiter.Apply(l.out)
	}
	if err := l.drv.Write(l.out); err != nil {
		return err
	}

	l.mu.Lock()
	l.frames++
	n := l.frames
	l.mu.Unlock()

	if n == 1 {
		l.logger.Info().Float64("target_fps", l.cfg.EffectiveFPS()).Msg("first frame sent")
	}
	if l.reportEvery > 0 && n%uint64(l.reportEvery) == 0 {
		ev := l.logger.Info().Uint64("frames", n).Float64("actual_fps", l.Stats().FPS)
		if l.light != nil {
			ev = ev.Float64("light_us", l.light())
		}
		ev.Msg("frame rate")
	}
	return nil
}

// pollReload swaps in a new effect if an update is pending. The strip length
// is fixed for the run, so updates that change it are refused.
func (l *Loop) pollReload() {
	if l.reload == nil {
		return
	}
	select {
	case u := <-l.reload:
		if u.Config == nil || u.Version <= l.version {
			return
		}
		if u.Config.LedCount != l.cfg.LedCount {
			l.logger.Warn().
				Int("leds", l.cfg.LedCount).
				Int("requested", u.Config.LedCount).
				Msg("ignoring update that changes the strip length")
			return
		}
		eff, err := effect.New(u.Config, l.rng)
		if err != nil {
			l.logger.Warn().Err(err).Uint64("version", u.Version).Msg("ignoring invalid update")
			return
		}
		l.eff = eff
		l.version = u.Version
		l.limiter = NewLimiter(u.Config.Output.Limiter)
		l.setLogger(eff.Name())
		l.logger.Info().Uint64("version", u.Version).Str("effect", eff.Name()).Msg("configuration applied")
	default:
	}
}

// drain leaves the strip dark. Failure here is only logged.
func (l *Loop) drain() {
	black := model.NewFrame(l.cfg.LedCount)
	if err := l.drv.Write(black); err != nil {
		l.logger.Error().Err(err).Msg("failed to clear LEDs")
	}
}
