package led

import (
	"sync"

	"github.com/coreman2200/funtimes-lumistrip/internal/model"
)

// Recorder keeps a copy of every frame written to it.
type Recorder struct {
	mu     sync.Mutex
	frames [][]model.ColorVal
	closed bool
}

func (r *Recorder) Write(frame []model.ColorVal) error {
	f := make([]model.ColorVal, len(frame))
	copy(f, frame)
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Frames() [][]model.ColorVal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]model.ColorVal(nil), r.frames...)
}

// Last returns the most recent frame, or nil.
func (r *Recorder) Last() []model.ColorVal {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return nil
	}
	return r.frames[len(r.frames)-1]
}

func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
