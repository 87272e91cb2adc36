package led

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/coreman2200/funtimes-lumistrip/internal/model"
)

func redGreen() []model.ColorVal {
	return []model.ColorVal{model.RGB(255, 0, 0), model.RGB(0, 255, 0)}
}

func TestSPIWritesEveryBus(t *testing.T) {
	var a, b bytes.Buffer
	ports := []spi.Port{spitest.NewRecordRaw(&a), spitest.NewRecordRaw(&b)}
	s, err := NewSPI(ports, 2, 2400*physic.KiloHertz)
	require.NoError(t, err)

	require.NoError(t, s.Write(redGreen()))
	assert.NotZero(t, a.Len())
	assert.Equal(t, a.Bytes(), b.Bytes(), "both buses get the same stream")
	assert.NoError(t, s.Close())
}

func TestSPIRejectsWrongLength(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewSPI([]spi.Port{spitest.NewRecordRaw(&buf)}, 3, 2400*physic.KiloHertz)
	require.NoError(t, err)
	assert.Error(t, s.Write(redGreen()))
	assert.Zero(t, buf.Len())
}

type fakeDrawer struct {
	img    *image.NRGBA
	halted bool
}

func (d *fakeDrawer) String() string          { return "fake" }
func (d *fakeDrawer) Halt() error             { d.halted = true; return nil }
func (d *fakeDrawer) ColorModel() color.Model { return color.NRGBAModel }
func (d *fakeDrawer) Bounds() image.Rectangle { return image.Rect(0, 0, 2, 1) }
func (d *fakeDrawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	d.img = image.NewNRGBA(r)
	for x := r.Min.X; x < r.Max.X; x++ {
		d.img.Set(x, 0, src.At(sp.X+x, sp.Y))
	}
	return nil
}

func TestScreenDrawsRow(t *testing.T) {
	d := &fakeDrawer{}
	s := newScreen(d, 2)
	require.NoError(t, s.Write(redGreen()))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, d.img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, d.img.NRGBAAt(1, 0))

	assert.Error(t, s.Write(model.NewFrame(3)))
	require.NoError(t, s.Close())
	assert.True(t, d.halted)
}

func newSimTerm(t *testing.T, w, h int) (tcell.SimulationScreen, *Term) {
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	s.SetSize(w, h)
	term := newTerm(s)
	t.Cleanup(func() { term.Close() })
	return s, term
}

func TestTermWrapsAtScreenWidth(t *testing.T) {
	s, term := newSimTerm(t, 3, 2)
	frame := model.NewFrame(5)
	frame[4] = model.RGB(0, 0, 255)
	require.NoError(t, term.Write(frame))

	r, _, st, _ := s.GetContent(1, 1)
	assert.Equal(t, termGlyph, r)
	fg, _, _ := st.Decompose()
	assert.Equal(t, tcell.NewRGBColor(0, 0, 255), fg)
}

func TestTermInterruptOnQuitKey(t *testing.T) {
	s, term := newSimTerm(t, 4, 1)
	s.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
	s.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	select {
	case <-term.Interrupts():
	case <-time.After(time.Second):
		t.Fatal("q did not interrupt")
	}
}

func TestQuitKeys(t *testing.T) {
	assert.True(t, quitKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
	assert.True(t, quitKey(tcell.NewEventKey(tcell.KeyRune, 'c', tcell.ModCtrl)))
	assert.True(t, quitKey(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)))
	assert.False(t, quitKey(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)))
}

func TestFanoutWritesAllAndJoinsClose(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	f := NewFanout(a, b)
	require.NoError(t, f.Write(redGreen()))
	assert.Equal(t, redGreen(), a.Last())
	assert.Equal(t, redGreen(), b.Last())

	require.NoError(t, f.Close())
	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
}

type failing struct{ Discard }

func (failing) Write([]model.ColorVal) error { return errors.New("fault") }

func TestFanoutReportsFailure(t *testing.T) {
	r := &Recorder{}
	assert.Error(t, NewFanout(r, failing{}).Write(redGreen()))
	assert.Len(t, r.Frames(), 1)
}

func TestFanoutSingleSinkUnwrapped(t *testing.T) {
	r := &Recorder{}
	assert.Same(t, r, NewFanout(r))
}

func TestHeartbeatTogglesBySecond(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO6", Num: 6}
	rec := &Recorder{}
	h := NewHeartbeat(rec, pin)

	h.now = func() time.Time { return time.Unix(10, 0) }
	require.NoError(t, h.Write(redGreen()))
	assert.Equal(t, gpio.High, pin.Read())

	h.now = func() time.Time { return time.Unix(11, 0) }
	require.NoError(t, h.Write(redGreen()))
	assert.Equal(t, gpio.Low, pin.Read())

	h.now = func() time.Time { return time.Unix(12, 0) }
	require.NoError(t, h.Write(redGreen()))
	require.NoError(t, h.Close())
	assert.Equal(t, gpio.Low, pin.Read())
	assert.True(t, rec.Closed())
	assert.Len(t, rec.Frames(), 3)
}

func TestHeartbeatSkipsPinOnSinkError(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO6", Num: 6}
	h := NewHeartbeat(failing{}, pin)
	h.now = func() time.Time { return time.Unix(10, 0) }
	assert.Error(t, h.Write(redGreen()))
	assert.Equal(t, gpio.Low, pin.Read())
}
