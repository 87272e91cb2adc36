package render

import (
	"testing"

	"github.com/coreman2200/funtimes-lumistrip/internal/config"
	"github.com/coreman2200/funtimes-lumistrip/internal/model"
)

func whiteFrame(n int) []model.ColorVal {
	buf := make([]model.ColorVal, n)
	model.Fill(buf, model.RGB(255, 255, 255))
	return buf
}

func TestLimiterBudgetClamp(t *testing.T) {
	// 10 LEDs all white at 20mA per channel: 600mA before limiting
	buf := whiteFrame(10)
	l := NewLimiter(config.LimiterCfg{LEDChanMA: 20, BudgetMA: 300})

	l.Apply(buf)
	if cur := Current(buf, 20); cur > 300.1 {
		t.Fatalf("expected <= 300mA after limit, got %.2f mA", cur)
	}
}

func TestLimiterUnderBudgetUntouched(t *testing.T) {
	buf := whiteFrame(2)
	l := NewLimiter(config.LimiterCfg{BudgetMA: 1000})
	l.Apply(buf)
	if buf[0] != model.RGB(255, 255, 255) {
		t.Fatalf("expected frame untouched, got %v", buf[0])
	}
}

func TestWhiteCap(t *testing.T) {
	buf := whiteFrame(1) // sum=3
	l := NewLimiter(config.LimiterCfg{WhiteCap: 1.5})
	l.Apply(buf)
	sum := float64(int(buf[0].GetR())+int(buf[0].GetG())+int(buf[0].GetB())) / 255
	if sum > 1.5001 {
		t.Fatalf("expected sum <= 1.5, got %f", sum)
	}
	if buf[0].GetA() != 255 {
		t.Fatalf("alpha must survive scaling, got %d", buf[0].GetA())
	}
}

func TestLimiterDisabledByDefault(t *testing.T) {
	if NewLimiter(config.Default().Output.Limiter).Enabled() {
		t.Fatal("default limiter should be disabled")
	}
}
