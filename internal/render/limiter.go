package render

import (
	"github.com/coreman2200/funtimes-lumistrip/internal/config"
	"github.com/coreman2200/funtimes-lumistrip/internal/model"
)

// Limiter applies a two-stage power limiter:
// 1) Per-LED white cap: scales (R,G,B) so R+G+B <= WhiteCap (channels in 0..1)
// 2) Global current budget: estimates current and scales the whole frame to stay under BudgetMA
//
// A zero WhiteCap or BudgetMA disables that stage.
type Limiter struct {
	WhiteCap float64
	ChanMA   float64 // mA per color channel at full scale; WS2812 ≈ 20
	BudgetMA float64
}

func NewLimiter(c config.LimiterCfg) Limiter {
	l := Limiter{WhiteCap: c.WhiteCap, ChanMA: c.LEDChanMA, BudgetMA: c.BudgetMA}
	if l.ChanMA <= 0 {
		l.ChanMA = 20
	}
	return l
}

func (l Limiter) Enabled() bool {
	return l.WhiteCap > 0 || l.BudgetMA > 0
}

func (l Limiter) Apply(buf []model.ColorVal) {
	if l.WhiteCap > 0 {
		wc := l.WhiteCap * 255
		for i := range buf {
			s := float64(int(buf[i].GetR()) + int(buf[i].GetG()) + int(buf[i].GetB()))
			if s > wc {
				scale(&buf[i], wc/s)
			}
		}
	}

	if l.BudgetMA <= 0 {
		return
	}
	total := Current(buf, l.ChanMA)
	if total <= l.BudgetMA {
		return
	}
	scaleAll(buf, l.BudgetMA/total)
}

// Current estimates the draw of a frame in mA.
func Current(buf []model.ColorVal, chanMA float64) float64 {
	var total float64
	for _, c := range buf {
		total += float64(int(c.GetR())+int(c.GetG())+int(c.GetB())) / 255 * chanMA
	}
	return total
}

func scaleAll(buf []model.ColorVal, s float64) {
	if s >= 1 {
		return
	}
	for i := range buf {
		scale(&buf[i], s)
	}
}

// scale truncates, so a scaled frame never exceeds its target.
func scale(c *model.ColorVal, s float64) {
	c.SetR(uint8(float64(c.GetR()) * s))
	c.SetG(uint8(float64(c.GetG()) * s))
	c.SetB(uint8(float64(c.GetB()) * s))
}
