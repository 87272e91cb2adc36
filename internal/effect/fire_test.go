package effect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-lumistrip/internal/config"
	"github.com/coreman2200/funtimes-lumistrip/internal/model"
)

func fireCfg(leds int, fc config.FireCfg) *config.Config {
	c := config.Default()
	c.Mode = config.Fire
	c.LedCount = leds
	c.Fire = fc
	return c
}

func maxHeat(h []byte) byte {
	var m byte
	for _, v := range h {
		if v > m {
			m = v
		}
	}
	return m
}

func TestHeatColor(t *testing.T) {
	tests := []struct {
		v    byte
		want model.ColorVal
	}{
		{0, model.RGB(0, 0, 0)},
		{1, model.RGB(4, 0, 0)},
		{64, model.RGB(192, 0, 0)},    // t=48
		{85, model.RGB(255, 0, 0)},    // t=64: middle band starts at zero green
		{128, model.RGB(255, 128, 0)}, // t=96
		{171, model.RGB(255, 255, 0)}, // t=128: top band, ramp 0
		{255, model.RGB(255, 255, 252)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HeatColor(tt.v), "heat %d", tt.v)
	}
	assert.Equal(t, model.Black, HeatColor(0))
}

func TestHeatColorBands(t *testing.T) {
	for v := 0; v < 256; v++ {
		c := HeatColor(byte(v))
		assert.Equal(t, c, HeatColor(byte(v)), "mapping must be deterministic")
		tt := scale8Video(byte(v), 191)
		switch {
		case tt&0x80 != 0:
			assert.Equal(t, uint8(255), c.GetR())
			assert.Equal(t, uint8(255), c.GetG())
		case tt&0x40 != 0:
			assert.Equal(t, uint8(255), c.GetR())
			assert.Zero(t, c.GetB())
		default:
			assert.Zero(t, c.GetG())
			assert.Zero(t, c.GetB())
		}
	}
}

func TestFireEffectiveSize(t *testing.T) {
	f := NewFire(fireCfg(10, config.FireCfg{}), NewRand(1))
	assert.Equal(t, 10, f.Size())
	assert.Len(t, f.Heat(), 10)

	f = NewFire(fireCfg(11, config.FireCfg{Mirrored: true}), NewRand(1))
	assert.Equal(t, 5, f.Size())
	assert.Len(t, f.Step(), 11)
	for _, v := range f.Heat() {
		assert.Zero(t, v)
	}
}

func TestFireEmptyStrip(t *testing.T) {
	for _, c := range []*config.Config{
		fireCfg(0, config.FireCfg{Cooling: 50, Sparks: 5, Sparking: 255}),
		fireCfg(1, config.FireCfg{Mirrored: true, Sparks: 5, Sparking: 255}),
	} {
		f := NewFire(c, NewRand(3))
		frame := f.Step()
		assert.Len(t, frame, c.LedCount)
		assert.True(t, model.IsDark(frame))
	}
}

func TestFireCoolingNeverGoesNegative(t *testing.T) {
	f := NewFire(fireCfg(20, config.FireCfg{Cooling: 1000}), NewRand(7))
	for i := range f.heat {
		f.heat[i] = byte(i)
	}
	for i := 0; i < 50; i++ {
		f.cool()
		for _, v := range f.heat {
			assert.LessOrEqual(t, v, byte(19))
		}
	}
	assert.Zero(t, maxHeat(f.heat))
}

func TestFireDiffusionKernels(t *testing.T) {
	f := NewFire(fireCfg(8, config.FireCfg{}), NewRand(1))
	copy(f.heat, []byte{0, 80, 0, 0, 0, 0, 0, 0})
	f.diffuse()
	// cell 0: (0*2 + 80*3 + 0 + 0)/8 = 30; cell 1 sees itself only: 80*2/8 = 20
	assert.Equal(t, byte(30), f.heat[0])
	assert.Equal(t, byte(20), f.heat[1])
	// cell 7 wraps around: (0*2 + h0*3 + h1*2 + 0)/8 with h0,h1 already blended
	assert.Equal(t, byte((30*3+20*2)/8), f.heat[7])

	f = NewFire(fireCfg(8, config.FireCfg{Horizontal: true}), NewRand(1))
	copy(f.heat, []byte{0, 0, 0, 140, 0, 0, 0, 0})
	f.diffuse()
	// cell 0 reaches cell 3 at +3: 140*1/14 = 10
	assert.Equal(t, byte(10), f.heat[0])
}

func TestFireDiffusionStaysInRange(t *testing.T) {
	for _, horiz := range []bool{false, true} {
		f := NewFire(fireCfg(16, config.FireCfg{Horizontal: horiz}), NewRand(9))
		for i := range f.heat {
			f.heat[i] = 255
		}
		f.diffuse()
		for _, v := range f.heat {
			assert.Equal(t, byte(255), v)
		}
	}
}

func TestFireDecaysWithoutSparks(t *testing.T) {
	for _, horiz := range []bool{false, true} {
		f := NewFire(fireCfg(30, config.FireCfg{Cooling: 0, Sparks: 0, Horizontal: horiz}), NewRand(11))
		for i := range f.heat {
			f.heat[i] = byte(i * 2)
		}
		prev := maxHeat(f.heat)
		for i := 0; i < 400; i++ {
			f.Step()
			cur := maxHeat(f.heat)
			require.LessOrEqual(t, cur, prev, "step %d", i)
			prev = cur
		}
		assert.Zero(t, prev)
	}
}

func TestFireIgnitionWrapsAround(t *testing.T) {
	c := fireCfg(4, config.FireCfg{Sparks: 1, Sparking: 255, SparkHeight: 1})
	f := NewFire(c, NewRand(5))
	f.heat[3] = 250
	f.ignite()
	// 250 + [160,255) overflows a byte
	assert.Less(t, f.heat[3], byte(250))
	assert.GreaterOrEqual(t, int(f.heat[3]), (250+160)-256)
}

func TestFireIgnitionRespectsHeight(t *testing.T) {
	c := fireCfg(20, config.FireCfg{Sparks: 50, Sparking: 255, SparkHeight: 3})
	f := NewFire(c, NewRand(13))
	f.ignite()
	for i := 0; i < 17; i++ {
		assert.Zero(t, f.heat[i], "cell %d", i)
	}
	assert.NotZero(t, maxHeat(f.heat[17:]))
}

func TestFireSparkingZeroNeverIgnites(t *testing.T) {
	f := NewFire(fireCfg(10, config.FireCfg{Sparks: 100, Sparking: 0, SparkHeight: 10}), NewRand(2))
	for i := 0; i < 20; i++ {
		f.Step()
	}
	assert.Zero(t, maxHeat(f.heat))
	assert.True(t, model.IsDark(f.frame))
}

func TestFireSparkHeightZeroUsesBottom(t *testing.T) {
	f := NewFire(fireCfg(6, config.FireCfg{Sparks: 1, Sparking: 255, SparkHeight: 0}), NewRand(2))
	f.ignite()
	assert.NotZero(t, f.heat[5])
	assert.Zero(t, maxHeat(f.heat[:5]))
}

func TestFireReversedRendering(t *testing.T) {
	f := NewFire(fireCfg(5, config.FireCfg{Reversed: true}), NewRand(1))
	copy(f.heat, []byte{255, 0, 0, 0, 0})
	f.render()
	assert.Equal(t, HeatColor(255), f.frame[4])
	assert.Equal(t, model.Black, f.frame[0])
}

func TestFireMirroredIsSymmetric(t *testing.T) {
	for _, reversed := range []bool{false, true} {
		for _, leds := range []int{10, 11, 31} {
			c := fireCfg(leds, config.FireCfg{
				Cooling: 40, Sparks: 4, Sparking: 200, SparkHeight: 3,
				Mirrored: true, Reversed: reversed,
			})
			f := NewFire(c, NewRand(uint64(leds)))
			n := f.Size()
			for step := 0; step < 60; step++ {
				frame := f.Step()
				for i := 0; i < n; i++ {
					require.Equal(t, frame[i], frame[2*n-1-i],
						"reversed=%v leds=%d step=%d i=%d", reversed, leds, step, i)
				}
				if leds%2 == 1 {
					assert.Equal(t, model.Black, frame[leds-1])
				}
			}
		}
	}
}

func TestFireSeededRunsAreReproducible(t *testing.T) {
	c := fireCfg(24, config.FireCfg{Cooling: 55, Sparks: 3, SparkHeight: 4, Sparking: 120})
	a := NewFire(c, NewRand(42))
	b := NewFire(c, NewRand(42))
	for i := 0; i < 30; i++ {
		require.Equal(t, a.Step(), b.Step())
	}
}
