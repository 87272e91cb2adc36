package led

import (
	"fmt"
	"image"
	"sync"

	"periph.io/x/conn/v3/display"
	"periph.io/x/extra/devices/screen"

	"github.com/coreman2200/funtimes-lumistrip/internal/model"
)

// Screen prints each frame as a row of ANSI colored blocks on stdout.
type Screen struct {
	mu     sync.Mutex
	drawer display.Drawer
	img    *image.NRGBA
}

func NewScreen(count int) *Screen {
	return newScreen(screen.New(count), count)
}

func newScreen(d display.Drawer, count int) *Screen {
	return &Screen{drawer: d, img: image.NewNRGBA(image.Rect(0, 0, count, 1))}
}

func (s *Screen) Write(frame []model.ColorVal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(frame) != s.img.Rect.Dx() {
		return fmt.Errorf("screen: frame has %d leds, row has %d", len(frame), s.img.Rect.Dx())
	}
	for i, c := range frame {
		s.img.SetNRGBA(i, 0, c.ToNRGBA())
	}
	return s.drawer.Draw(s.drawer.Bounds(), s.img, image.Point{})
}

func (s *Screen) Close() error {
	return s.drawer.Halt()
}
