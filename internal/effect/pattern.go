package effect

import (
	"fmt"
	"sort"

	"github.com/coreman2200/funtimes-lumistrip/internal/config"
	"github.com/coreman2200/funtimes-lumistrip/internal/model"
)

// Unmapped marks an LED no range covers; it stays black.
const Unmapped = -1

// Pattern repeats a short color sequence over the strip and shifts it every frame.
type Pattern struct {
	colors    []model.ColorVal
	ledToSlot []int   // LED index -> pattern slot or Unmapped
	slotLeds  [][]int // pattern slot -> LED indices
	offset    int
	perFrame  int
	frame     []model.ColorVal
}

func NewPattern(cfg *config.Config) (*Pattern, error) {
	if len(cfg.PatternToRepeat) == 0 {
		return nil, ErrNoPattern
	}
	if len(cfg.LedDefinitions) == 0 {
		return nil, ErrNoLedDefinitions
	}
	colors, err := model.ParsePattern(cfg.PatternToRepeat)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}
	m, err := BuildLedMap(cfg.LedCount, len(colors), cfg.LedDefinitions)
	if err != nil {
		return nil, err
	}
	p := &Pattern{
		colors:    colors,
		ledToSlot: m,
		slotLeds:  invert(m, len(colors)),
		perFrame:  cfg.PatternOffsetPerFrame,
		frame:     model.NewFrame(cfg.LedCount),
	}
	return p, nil
}

func (p *Pattern) Name() string { return string(config.Pattern) }

// Step paints every slot with its shifted color, then advances the offset
// by -PatternOffsetPerFrame.
func (p *Pattern) Step() []model.ColorVal {
	n := len(p.colors)
	for slot, leds := range p.slotLeds {
		c := p.colors[(slot+p.offset)%n]
		for _, led := range leds {
			p.frame[led] = c
		}
	}
	p.offset = wrap(p.offset-p.perFrame, n)
	return p.frame
}

// Offset is the slot shift the next Step will render with, in [0, len(pattern)).
func (p *Pattern) Offset() int { return p.offset }

// LedMap returns the LED -> slot mapping. Callers must not modify it.
func (p *Pattern) LedMap() []int { return p.ledToSlot }

// BuildLedMap assigns pattern slots to LED indices. Ranges apply in ascending
// Index order; later ranges overwrite earlier ones where they overlap. Each
// range counts its slots from 0.
func BuildLedMap(ledCount, patternLen int, ranges []config.LedRange) ([]int, error) {
	m := make([]int, ledCount)
	for i := range m {
		m[i] = Unmapped
	}
	ordered := append([]config.LedRange(nil), ranges...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	for _, lr := range ordered {
		lo, hi := lr.LedStart, lr.LedEnd
		if lo > hi {
			lo, hi = hi, lo
		}
		if lo < 0 || hi >= ledCount {
			return nil, fmt.Errorf("%w: range %d covers %d..%d, strip has %d leds",
				ErrRangeBounds, lr.Index, lr.LedStart, lr.LedEnd, ledCount)
		}
		step := 1
		if lr.LedStart > lr.LedEnd {
			step = -1
		}
		slot := 0
		for led := lr.LedStart; ; led += step {
			m[led] = slot % patternLen
			slot++
			if led == lr.LedEnd {
				break
			}
		}
	}
	return m, nil
}

func invert(m []int, patternLen int) [][]int {
	out := make([][]int, patternLen)
	for led, slot := range m {
		if slot == Unmapped {
			continue
		}
		out[slot] = append(out[slot], led)
	}
	return out
}

// wrap maps v into [0, n).
func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
