// Package effect computes frames for the two strip effects.
//
// An Effect owns its frame buffer and its evolving state (pattern offset or
// heat field). Step mutates that state and returns the full-length frame; the
// returned slice is reused by the next Step, so callers must be done with it
// (e.g. transmitted it) before stepping again.
package effect

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/coreman2200/funtimes-lumistrip/internal/config"
	"github.com/coreman2200/funtimes-lumistrip/internal/model"
)

var (
	ErrNoPattern        = fmt.Errorf("%w: no pattern to repeat", config.ErrInvalid)
	ErrNoLedDefinitions = fmt.Errorf("%w: no led definitions", config.ErrInvalid)
	ErrRangeBounds      = fmt.Errorf("%w: led range outside strip", config.ErrInvalid)
)

type Effect interface {
	Name() string
	Step() []model.ColorVal
}

// New builds the effect selected by cfg.Mode.
func New(cfg *config.Config, rng *rand.Rand) (Effect, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Mode {
	case config.Pattern:
		return NewPattern(cfg)
	case config.Fire:
		if rng == nil {
			rng = NewRand(cfg.Seed)
		}
		return NewFire(cfg, rng), nil
	}
	return nil, fmt.Errorf("%w: unknown mode %q", config.ErrInvalid, cfg.Mode)
}

// NewRand seeds a generator; seed 0 picks one from the clock.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
}
