package led

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-lumistrip/internal/model"
)

// Heartbeat wraps a sink and toggles a status pin once per second while
// frames are flowing. The pin is driven low on Close.
type Heartbeat struct {
	Sink
	pin gpio.PinOut
	now func() time.Time
}

func NewHeartbeat(s Sink, pin gpio.PinOut) *Heartbeat {
	return &Heartbeat{Sink: s, pin: pin, now: time.Now}
}

// OpenHeartbeat looks the pin up by name, e.g. "GPIO6".
func OpenHeartbeat(s Sink, name string) (*Heartbeat, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("heartbeat: no pin %q", name)
	}
	return NewHeartbeat(s, p), nil
}

func (h *Heartbeat) Write(frame []model.ColorVal) error {
	if err := h.Sink.Write(frame); err != nil {
		return err
	}
	return h.pin.Out(gpio.Level(h.now().Second()%2 == 0))
}

func (h *Heartbeat) Close() error {
	return errors.Join(h.pin.Out(gpio.Low), h.Sink.Close())
}
