package effect

import "github.com/coreman2200/funtimes-lumistrip/internal/model"

// HeatColor maps a heat value onto a black -> red -> yellow -> white ramp
// split in three bit-selected bands.
func HeatColor(v byte) model.ColorVal {
	t := scale8Video(v, 191)
	ramp := byte(t&0x3F) << 2 // 0..252

	switch {
	case t&0x80 != 0:
		return model.RGB(255, 255, ramp)
	case t&0x40 != 0:
		return model.RGB(255, ramp, 0)
	default:
		return model.RGB(ramp, 0, 0)
	}
}

// scale8Video scales like (i*scale)/256 but never rounds a non-zero input to zero.
func scale8Video(i byte, scale int) int {
	if i == 0 {
		return 0
	}
	r := (int(i) * scale) >> 8
	if scale != 0 {
		r++
	}
	return r
}
