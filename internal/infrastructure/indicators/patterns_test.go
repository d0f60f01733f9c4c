package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func bar(o, h, l, c float64) Bar {
	return Bar{Open: o, High: h, Low: l, Close: c}
}

func TestDoji(t *testing.T) {
	th := DefaultPatternThresholds()
	assert.True(t, IsDoji(bar(100, 110, 90, 100.5), th))
	assert.False(t, IsDoji(bar(100, 110, 90, 108), th))
	// no range at all is not a doji
	assert.False(t, IsDoji(bar(100, 100, 100, 100), th))
}

func TestHammer(t *testing.T) {
	th := DefaultPatternThresholds()
	// body 2, lower shadow 20, upper shadow 0.5 of range 22.5
	assert.True(t, IsHammer(bar(100, 102.5, 80, 102), th))
	// long upper shadow
	assert.False(t, IsHammer(bar(100, 110, 80, 102), th))
	// lower shadow too short
	assert.False(t, IsHammer(bar(100, 105, 98, 104), th))
}

func TestBullishEngulfing(t *testing.T) {
	th := DefaultPatternThresholds()
	prev := bar(110, 111, 90, 95)
	assert.True(t, IsBullishEngulfing(prev, bar(94, 120, 93, 115), th))
	// second bar bearish
	assert.False(t, IsBullishEngulfing(prev, bar(115, 120, 93, 94), th))
	// does not close above the previous open
	assert.False(t, IsBullishEngulfing(prev, bar(94, 109, 93, 105), th))
}

func TestMorningStar(t *testing.T) {
	th := DefaultPatternThresholds()
	first := bar(110, 111, 99, 100)
	star := bar(99.5, 100, 97, 99)
	third := bar(99, 109, 98.5, 108)
	assert.True(t, IsMorningStar(first, star, third, th))
	// third bar recovers too little
	assert.False(t, IsMorningStar(first, star, bar(99, 103, 98.5, 102), th))
	// star body too large
	assert.False(t, IsMorningStar(first, bar(99.5, 100, 92, 93), third, th))
}

func TestDetectPatterns_Alignment(t *testing.T) {
	th := DefaultPatternThresholds()
	bars := []Bar{
		bar(110, 111, 99, 100),
		bar(99.5, 100, 97, 99),
		bar(99, 109, 98.5, 108),
	}
	flags := DetectPatterns(bars, th)
	assert.Len(t, flags.Hammer, 3)
	assert.False(t, flags.MorningStar[0])
	assert.False(t, flags.MorningStar[1])
	assert.True(t, flags.MorningStar[2])
	assert.False(t, flags.Engulfing[0])
}
