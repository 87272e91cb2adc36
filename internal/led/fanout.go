package led

import (
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/coreman2200/funtimes-lumistrip/internal/model"
)

// Fanout writes each frame to every sink concurrently and returns when all
// of them are done.
type Fanout struct {
	sinks []Sink
}

// NewFanout returns the only sink itself when there is just one.
func NewFanout(sinks ...Sink) Sink {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return &Fanout{sinks: sinks}
}

func (f *Fanout) Write(frame []model.ColorVal) error {
	var g errgroup.Group
	for _, s := range f.sinks {
		s := s
		g.Go(func() error { return s.Write(frame) })
	}
	return g.Wait()
}

func (f *Fanout) Close() error {
	var errs []error
	for _, s := range f.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
