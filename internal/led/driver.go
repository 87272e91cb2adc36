package led

import "github.com/coreman2200/funtimes-lumistrip/internal/model"

// Sink abstracts an LED output.
type Sink interface {
	// Write pushes a frame and returns once it is sent. The frame is
	// read-only for the sink and only valid until Write returns.
	Write(frame []model.ColorVal) error
	// Close releases resources.
	Close() error
}

// Discard drops every frame.
type Discard struct{}

func (Discard) Write([]model.ColorVal) error { return nil }
func (Discard) Close() error                 { return nil }
