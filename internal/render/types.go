package render

import "github.com/coreman2200/funtimes-lumistrip/internal/model"

// Driver is the transmit sink the loop hands finished frames to. Write must
// return once the frame is sent; the loop reuses the buffer afterwards.
type Driver interface {
	Write([]model.ColorVal) error
}

// State of a Loop. A loop moves strictly forward through these and never
// restarts.
type State string

const (
	Idle         State = "idle"
	Initializing State = "initializing"
	Running      State = "running"
	Draining     State = "draining"
	Stopped      State = "stopped"
)
