package model

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	ALPHA_OFFSET uint8 = 0x18
	RED_OFFSET   uint8 = 0x10
	GREEN_OFFSET uint8 = 0x08
	BLUE_OFFSET  uint8 = 0x0
)

// ErrBadColor is returned for pattern entries that are not hex colors.
var ErrBadColor = errors.New("invalid color")

// ColorVal is a packed 0xAARRGGBB color.
type ColorVal struct {
	val uint32
}

// Black is opaque black; every LED the effects do not write shows it.
var Black = NewColor(0xFF000000)

func NewColor(c uint32) ColorVal {
	return ColorVal{val: c}
}

// RGB returns an opaque color.
func RGB(r, g, b uint8) ColorVal {
	return NewColor(0xFF<<ALPHA_OFFSET | uint32(r)<<RED_OFFSET | uint32(g)<<GREEN_OFFSET | uint32(b)<<BLUE_OFFSET)
}

func (c ColorVal) Color() uint32 {
	return c.val
}

func (c ColorVal) ToRGBA() color.RGBA {
	return color.RGBA{c.GetR(), c.GetG(), c.GetB(), c.GetA()}
}

// ToNRGBA drops alpha; strips only take the three color channels.
func (c ColorVal) ToNRGBA() color.NRGBA {
	return color.NRGBA{R: c.GetR(), G: c.GetG(), B: c.GetB(), A: 255}
}

func (c ColorVal) String() string {
	return fmt.Sprintf("%08X", c.val)
}

func setcolor(c uint32, n uint8, off uint8) uint32 {
	var val uint32 = uint32(n) << off
	var mask uint32 = 0xFF << off
	return (c & (^mask)) | val
}

func getcolor(c uint32, off uint8) uint8 {
	var mask uint32 = 0xFF << off
	return uint8((c & (mask)) >> off)
}

func (c *ColorVal) SetR(r uint8) {
	c.val = setcolor(c.val, r, RED_OFFSET)
}
func (c *ColorVal) SetG(g uint8) {
	c.val = setcolor(c.val, g, GREEN_OFFSET)
}
func (c *ColorVal) SetB(b uint8) {
	c.val = setcolor(c.val, b, BLUE_OFFSET)
}
func (c *ColorVal) SetA(a uint8) {
	c.val = setcolor(c.val, a, ALPHA_OFFSET)
}

func (c ColorVal) GetR() uint8 {
	return getcolor(c.val, RED_OFFSET)
}
func (c ColorVal) GetG() uint8 {
	return getcolor(c.val, GREEN_OFFSET)
}
func (c ColorVal) GetB() uint8 {
	return getcolor(c.val, BLUE_OFFSET)
}
func (c ColorVal) GetA() uint8 {
	return getcolor(c.val, ALPHA_OFFSET)
}

// ParseColor decodes a hex ARGB integer ("FF00FF00", "0xFF00FF00").
// A "#RRGGBB" web color is also accepted and comes back opaque.
func ParseColor(s string) (ColorVal, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return ColorVal{}, fmt.Errorf("%w %q: %v", ErrBadColor, s, err)
		}
		r, g, b := c.RGB255()
		return RGB(r, g, b), nil
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" || len(s) > 8 {
		return ColorVal{}, fmt.Errorf("%w %q", ErrBadColor, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return ColorVal{}, fmt.Errorf("%w %q: %v", ErrBadColor, s, err)
	}
	return NewColor(uint32(v)), nil
}

// ParsePattern decodes every entry of a repeating pattern, in order.
func ParsePattern(entries []string) ([]ColorVal, error) {
	out := make([]ColorVal, 0, len(entries))
	for i, e := range entries {
		c, err := ParseColor(e)
		if err != nil {
			return nil, fmt.Errorf("pattern entry %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}
