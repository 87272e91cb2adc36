package led

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/coreman2200/funtimes-lumistrip/internal/model"
)

const termGlyph = '█'

// Term renders frames as full-block cells in a terminal, wrapping rows at the
// screen width. The terminal runs in raw mode, so Ctrl-C, Esc and 'q' are
// delivered through Interrupts instead of as a signal.
type Term struct {
	mu     sync.Mutex
	screen tcell.Screen
	quit   chan struct{}
	once   sync.Once
}

func NewTerm() (*Term, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("term: %w", err)
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("term init: %w", err)
	}
	return newTerm(s), nil
}

// newTerm takes an initialized screen.
func newTerm(s tcell.Screen) *Term {
	s.HideCursor()
	s.Clear()
	t := &Term{screen: s, quit: make(chan struct{})}
	go t.poll()
	return t
}

// Interrupts is closed when the user asks to quit.
func (t *Term) Interrupts() <-chan struct{} { return t.quit }

func (t *Term) poll() {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if quitKey(ev) {
				t.once.Do(func() { close(t.quit) })
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

func quitKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlC, tcell.KeyEscape:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q'
	}
	return false
}

func (t *Term) Write(frame []model.ColorVal) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, _ := t.screen.Size()
	if w <= 0 {
		w = 1
	}
	for i, c := range frame {
		st := tcell.StyleDefault.
			Background(tcell.ColorBlack).
			Foreground(tcell.NewRGBColor(int32(c.GetR()), int32(c.GetG()), int32(c.GetB())))
		t.screen.SetContent(i%w, i/w, termGlyph, nil, st)
	}
	t.screen.Show()
	return nil
}

func (t *Term) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Fini()
	return nil
}
