package effect

import (
	"math/rand/v2"

	"github.com/coreman2200/funtimes-lumistrip/internal/config"
	"github.com/coreman2200/funtimes-lumistrip/internal/model"
)

const (
	blendSelf = 2

	// forward-only ("vertical") kernel
	vBlendNeighbor1 = 3
	vBlendNeighbor2 = 2
	vBlendNeighbor3 = 1
	vBlendTotal     = blendSelf + vBlendNeighbor1 + vBlendNeighbor2 + vBlendNeighbor3

	// symmetric ("horizontal") kernel
	hBlendNeighbor1 = 3
	hBlendNeighbor2 = 2
	hBlendNeighbor3 = 1
	hBlendTotal     = blendSelf + 2*(hBlendNeighbor1+hBlendNeighbor2+hBlendNeighbor3)

	sparkMin = 160
	sparkMax = 255
)

// Fire is a 1-D heat field cooled, diffused and re-ignited every frame.
type Fire struct {
	cfg   config.FireCfg
	size  int
	heat  []byte
	frame []model.ColorVal
	rng   *rand.Rand
}

func NewFire(cfg *config.Config, rng *rand.Rand) *Fire {
	size := cfg.LedCount
	if cfg.Fire.Mirrored {
		size = cfg.LedCount / 2
	}
	return &Fire{
		cfg:   cfg.Fire,
		size:  size,
		heat:  make([]byte, size),
		frame: model.NewFrame(cfg.LedCount),
		rng:   rng,
	}
}

func (f *Fire) Name() string { return string(config.Fire) }

// Size is the number of simulated cells.
func (f *Fire) Size() int { return f.size }

// Heat exposes the live heat field.
func (f *Fire) Heat() []byte { return f.heat }

func (f *Fire) Step() []model.ColorVal {
	if f.size == 0 {
		return f.frame
	}
	f.cool()
	f.diffuse()
	f.ignite()
	f.render()
	return f.frame
}

func (f *Fire) cool() {
	limit := f.cfg.Cooling*10/f.size + 2
	if limit < 1 {
		limit = 1
	}
	for i := range f.heat {
		v := int(f.heat[i]) - f.rng.IntN(limit)
		if v < 0 {
			v = 0
		}
		f.heat[i] = byte(v)
	}
}

// diffuse blends in place, so cells further along already see updated
// neighbours behind them.
func (f *Fire) diffuse() {
	h, n := f.heat, f.size
	at := func(i int) int { return int(h[((i%n)+n)%n]) }
	if f.cfg.Horizontal {
		for i := 0; i < n; i++ {
			h[i] = byte((at(i)*blendSelf +
				at(i+1)*hBlendNeighbor1 +
				at(i+2)*hBlendNeighbor2 +
				at(i+3)*hBlendNeighbor3 +
				at(i-1)*hBlendNeighbor1 +
				at(i-2)*hBlendNeighbor2 +
				at(i-3)*hBlendNeighbor3) / hBlendTotal)
		}
		return
	}
	for i := 0; i < n; i++ {
		h[i] = byte((at(i)*blendSelf +
			at(i+1)*vBlendNeighbor1 +
			at(i+2)*vBlendNeighbor2 +
			at(i+3)*vBlendNeighbor3) / vBlendTotal)
	}
}

// ignite adds sparks near the bottom of the field. The addition wraps at
// 256 on purpose: a hot cell can roll over to a dim one.
func (f *Fire) ignite() {
	height := f.cfg.SparkHeight
	if height > f.size {
		height = f.size
	}
	for i := 0; i < f.cfg.Sparks; i++ {
		if f.rng.IntN(255) >= f.cfg.Sparking {
			continue
		}
		r := 0
		if height > 0 {
			r = f.rng.IntN(height)
		}
		y := f.size - 1 - r
		f.heat[y] += byte(sparkMin + f.rng.IntN(sparkMax-sparkMin))
	}
}

func (f *Fire) render() {
	n := f.size
	for i := 0; i < n; i++ {
		c := HeatColor(f.heat[i])
		j := i
		if f.cfg.Reversed {
			j = n - 1 - i
		}
		f.frame[j] = c
		if f.cfg.Mirrored {
			m := 2*n - 1 - i
			if f.cfg.Reversed {
				m = n + i
			}
			f.frame[m] = c
		}
	}
}
