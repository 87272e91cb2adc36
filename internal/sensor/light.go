// Package sensor samples an ambient light level by RC charge timing: a
// capacitor behind a photoresistor is discharged through a GPIO, then the
// time it takes to read high again is measured. Brighter light charges it
// faster, so smaller readings mean more light.
package sensor

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

const DFLT_TIMEOUT = 500 * time.Millisecond

// Unknown is reported until the first sample completes.
const Unknown = -1.0

type Sampler struct {
	pin      gpio.PinIO
	interval time.Duration
	timeout  time.Duration
	level    atomic.Uint64
}

func NewSampler(pin gpio.PinIO, interval time.Duration) *Sampler {
	s := &Sampler{pin: pin, interval: interval, timeout: DFLT_TIMEOUT}
	s.level.Store(math.Float64bits(Unknown))
	return s
}

// Open looks the pin up by name, e.g. "GPIO13".
func Open(name string, interval time.Duration) (*Sampler, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("sensor: no pin %q", name)
	}
	return NewSampler(p, interval), nil
}

// Level is the last charge time in microseconds, or Unknown.
func (s *Sampler) Level() float64 {
	return math.Float64frombits(s.level.Load())
}

// Run samples until ctx is done. A reading that times out leaves the
// previous level in place.
func (s *Sampler) Run(ctx context.Context) error {
	defer s.pin.Halt()
	t := time.NewTimer(s.interval)
	defer t.Stop()
	for {
		if err := s.pin.Out(gpio.Low); err != nil {
			return fmt.Errorf("sensor discharge: %w", err)
		}
		t.Reset(s.interval)
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}

		us, ok, err := s.measure()
		if err != nil {
			return err
		}
		if !ok {
			log.Debug().Str("pin", s.pin.Name()).Dur("timeout", s.timeout).Msg("light sample timed out")
			continue
		}
		s.level.Store(math.Float64bits(us))
	}
}

func (s *Sampler) measure() (float64, bool, error) {
	start := time.Now()
	if err := s.pin.In(gpio.PullNoChange, gpio.RisingEdge); err != nil {
		return 0, false, fmt.Errorf("sensor input: %w", err)
	}
	if s.pin.Read() == gpio.Low && !s.pin.WaitForEdge(s.timeout) {
		return 0, false, nil
	}
	return float64(time.Since(start).Nanoseconds()) / 1e3, true, nil
}
