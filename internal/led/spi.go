package led

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-lumistrip/internal/model"
)

// SPI drives NRZ (WS2812 style) strips over one or more SPI buses. Every bus
// receives the same frame, and Write returns once all of them are done.
type SPI struct {
	mu    sync.Mutex
	ports []spi.Port
	devs  []*nrzled.Dev
	count int
	rgb   []byte
}

// OpenSPI opens the named buses ("" picks the first one available).
func OpenSPI(buses []string, count int, speedHz int) (*SPI, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	if len(buses) == 0 {
		buses = []string{""}
	}
	var ports []spi.Port
	for _, name := range buses {
		p, err := spireg.Open(name)
		if err != nil {
			closePorts(ports)
			return nil, fmt.Errorf("open spi %q: %w", name, err)
		}
		ports = append(ports, p)
	}
	s, err := NewSPI(ports, count, physic.Frequency(speedHz)*physic.Hertz)
	if err != nil {
		closePorts(ports)
		return nil, err
	}
	return s, nil
}

// NewSPI wraps already opened ports. The sink owns them from here on.
func NewSPI(ports []spi.Port, count int, freq physic.Frequency) (*SPI, error) {
	s := &SPI{ports: ports, count: count, rgb: make([]byte, 3*count)}
	for _, p := range ports {
		d, err := nrzled.NewSPI(p, &nrzled.Opts{NumPixels: count, Channels: 3, Freq: freq})
		if err != nil {
			return nil, fmt.Errorf("nrzled on %s: %w", p, err)
		}
		s.devs = append(s.devs, d)
	}
	return s, nil
}

func (s *SPI) Write(frame []model.ColorVal) error {
	if len(frame) != s.count {
		return fmt.Errorf("spi: frame has %d leds, strip has %d", len(frame), s.count)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rgb := model.PackRGB(s.rgb, frame)
	var g errgroup.Group
	for _, d := range s.devs {
		d := d
		g.Go(func() error {
			_, err := d.Write(rgb)
			return err
		})
	}
	return g.Wait()
}

func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, d := range s.devs {
		errs = append(errs, d.Halt())
	}
	errs = append(errs, closePorts(s.ports))
	s.devs, s.ports = nil, nil
	return errors.Join(errs...)
}

func closePorts(ports []spi.Port) error {
	var errs []error
	for _, p := range ports {
		if c, ok := p.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
